package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/validation"
	"procedure-assistant/internal/models"
)

const (
	msgTextRequired    = "Text input is required in the request body."
	msgMissingAddParam = "Missing required parameters: doctorName, procedureCode, and cost."
	msgInvalidCost     = "Cost must be a valid number."
	msgInvalidBody     = "Invalid request body."
	defaultLimit       = 5
)

func (s *Server) mapIntent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		s.writeError(c, apperrors.NewFieldValidationError(msgTextRequired, []string{"text"}))
		return
	}

	req, err := decodeIntentRequest(body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.svc.Resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(res.StatusCode, res.Response)
}

func decodeIntentRequest(body []byte) (models.IntentRequest, error) {
	var req models.IntentRequest
	if result := validation.IntentRequest.ValidateJSON(body); !result.Valid {
		if result.HasErrors("text") {
			return req, apperrors.NewFieldValidationError(msgTextRequired, []string{"text"})
		}
		return req, result.Err(msgInvalidBody)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, apperrors.NewValidationError(msgInvalidBody)
	}
	return req, nil
}

func (s *Server) addProcedure(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		s.writeError(c, apperrors.NewFieldValidationError(msgMissingAddParam, []string{"doctorName", "procedureCode", "cost"}))
		return
	}

	req, err := decodeAddRequest(body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.svc.Adder.AddProcedure(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func decodeAddRequest(body []byte) (models.AddProcedureRequest, error) {
	var req models.AddProcedureRequest
	if result := validation.AddProcedureRequest.ValidateJSON(body); !result.Valid {
		switch {
		case result.HasCode("REQUIRED"), result.HasErrors("doctorName"), result.HasErrors("procedureCode"):
			return req, result.Err(msgMissingAddParam)
		case result.HasErrors("cost"):
			return req, apperrors.NewFieldValidationError(msgInvalidCost, []string{"cost"})
		default:
			return req, result.Err(msgInvalidBody)
		}
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, apperrors.NewFieldValidationError(msgInvalidCost, []string{"cost"})
	}
	return req, nil
}

func (s *Server) getQuote(c *gin.Context) {
	res, err := s.svc.Quotes.GetQuote(c.Request.Context(), models.QuoteRequest{
		DoctorName:    c.Query("doctorName"),
		ProcedureCode: c.Query("procedureCode"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) showHistory(c *gin.Context) {
	res, err := s.svc.History.ShowHistory(c.Request.Context(), models.HistoryQuery{
		DoctorName: c.Query("doctorName"),
		Limit:      parseLimit(c.Query("limit")),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseLimit falls back to the default for missing or malformed values.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return n
}
