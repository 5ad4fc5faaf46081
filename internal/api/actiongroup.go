package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/models"
)

// Action-group API paths of the Bedrock agent's OpenAPI schema.
const (
	PathGetQuote           = "/getQuote"
	PathShowHistory        = "/showHistory"
	PathAddDoctorProcedure = "/addDoctorProcedure"
)

type ActionParameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// ActionGroupEvent is the payload a Bedrock agent sends to its action-group lambda.
type ActionGroupEvent struct {
	MessageVersion string `json:"messageVersion"`
	Agent          struct {
		Name    string `json:"name"`
		ID      string `json:"id"`
		Alias   string `json:"alias"`
		Version string `json:"version"`
	} `json:"agent"`
	InputText   string            `json:"inputText"`
	SessionID   string            `json:"sessionId"`
	ActionGroup string            `json:"actionGroup"`
	APIPath     string            `json:"apiPath"`
	HTTPMethod  string            `json:"httpMethod"`
	Parameters  []ActionParameter `json:"parameters"`
	RequestBody *struct {
		Content map[string]struct {
			Properties []ActionParameter `json:"properties"`
		} `json:"content"`
	} `json:"requestBody,omitempty"`
}

// params merges query parameters and JSON body properties, body last.
func (e ActionGroupEvent) params() map[string]string {
	out := make(map[string]string, len(e.Parameters))
	for _, p := range e.Parameters {
		out[p.Name] = p.Value
	}
	if e.RequestBody != nil {
		for _, p := range e.RequestBody.Content["application/json"].Properties {
			out[p.Name] = p.Value
		}
	}
	return out
}

type ActionGroupResponse struct {
	MessageVersion string                  `json:"messageVersion"`
	Response       ActionGroupResponseBody `json:"response"`
}

type ActionGroupResponseBody struct {
	ActionGroup    string                       `json:"actionGroup"`
	APIPath        string                       `json:"apiPath"`
	HTTPMethod     string                       `json:"httpMethod"`
	HTTPStatusCode int                          `json:"httpStatusCode"`
	ResponseBody   map[string]map[string]string `json:"responseBody"`
}

type ActionGroup struct {
	svc    Services
	logger logger.Logger
}

func NewActionGroup(svc Services, log logger.Logger) *ActionGroup {
	return &ActionGroup{svc: svc, logger: log.WithFields(map[string]interface{}{"component": "action-group"})}
}

// Handle runs the operation named by the event's apiPath. Failures are
// reported in the response body so the agent can relay them.
func (a *ActionGroup) Handle(ctx context.Context, ev ActionGroupEvent) ActionGroupResponse {
	p := ev.params()
	a.logger.Info("action group invoked", map[string]interface{}{
		"actionGroup": ev.ActionGroup,
		"apiPath":     ev.APIPath,
		"sessionId":   ev.SessionID,
	})

	var (
		result interface{}
		err    error
	)
	switch ev.APIPath {
	case PathGetQuote:
		result, err = a.svc.Quotes.GetQuote(ctx, models.QuoteRequest{
			DoctorName:    p["doctorName"],
			ProcedureCode: p["procedureCode"],
		})
	case PathShowHistory:
		result, err = a.svc.History.ShowHistory(ctx, models.HistoryQuery{
			DoctorName: p["doctorName"],
			Limit:      parseLimit(p["limit"]),
			StartDate:  p["startDate"],
			EndDate:    p["endDate"],
		})
	case PathAddDoctorProcedure:
		var req models.AddProcedureRequest
		req, err = addRequestFromParams(p)
		if err == nil {
			result, err = a.svc.Adder.AddProcedure(ctx, req)
		}
	default:
		err = apperrors.NewValidationError("Unknown action: " + ev.APIPath)
	}

	status := http.StatusOK
	if err != nil {
		var body errorBody
		status, body = errorResponse(err)
		result = body
	}
	return a.respond(ev, status, result)
}

func addRequestFromParams(p map[string]string) (models.AddProcedureRequest, error) {
	req := models.AddProcedureRequest{
		DoctorName:    p["doctorName"],
		ProcedureCode: p["procedureCode"],
		ProcedureName: p["procedureName"],
		ProcedureTime: p["time"],
		Confirmed:     strings.EqualFold(p["confirmed"], "true"),
	}
	if raw, ok := p["cost"]; ok && strings.TrimSpace(raw) != "" {
		cost, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
		if err != nil {
			return req, apperrors.NewFieldValidationError(msgInvalidCost, []string{"cost"})
		}
		req.Cost = &cost
	}
	return req, nil
}

func (a *ActionGroup) respond(ev ActionGroupEvent, status int, payload interface{}) ActionGroupResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"message":"Internal server error"}`)
	}
	return ActionGroupResponse{
		MessageVersion: "1.0",
		Response: ActionGroupResponseBody{
			ActionGroup:    ev.ActionGroup,
			APIPath:        ev.APIPath,
			HTTPMethod:     ev.HTTPMethod,
			HTTPStatusCode: status,
			ResponseBody: map[string]map[string]string{
				"application/json": {"body": string(body)},
			},
		},
	}
}
