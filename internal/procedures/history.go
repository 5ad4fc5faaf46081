package procedures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/models"
	"procedure-assistant/internal/store"
)

const maxHistoryLimit = 100

// ShowHistory lists a doctor's procedures newest first, optionally bounded by
// an inclusive date range.
func (s *Service) ShowHistory(ctx context.Context, q models.HistoryQuery) (*models.HistoryResult, error) {
	doctorInput := strings.TrimSpace(q.DoctorName)
	if doctorInput == "" {
		return nil, apperrors.NewFieldValidationError("Missing required parameter: doctorName.", []string{"doctorName"})
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.policy.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	start, err := parseBound(q.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := parseBound(q.EndDate, "endDate")
	if err != nil {
		return nil, err
	}

	match, err := s.resolveForQuery(ctx, doctorInput)
	if err != nil {
		return nil, err
	}

	records, err := s.store.QueryByName(ctx, match.MatchedName)
	if err != nil {
		return nil, apperrors.NewStoreQueryError("query by name", err)
	}

	result := &models.HistoryResult{
		DoctorName:      match.MatchedName,
		History:         []models.HistoryEntry{},
		TotalCost:       decimal.Zero,
		MatchConfidence: match.Confidence,
	}
	for _, r := range records {
		if !start.IsZero() && r.ProcedureTime.Before(start) {
			continue
		}
		if !end.IsZero() && r.ProcedureTime.After(end) {
			continue
		}
		result.History = append(result.History, models.HistoryEntry{
			Procedure:     r.DisplayName(),
			ProcedureCode: r.ProcedureCode,
			Time:          models.FormatProcedureTime(r.ProcedureTime),
			Cost:          r.Cost,
		})
		result.TotalCost = result.TotalCost.Add(r.Cost)
		if len(result.History) == limit {
			break
		}
	}

	if len(result.History) == 0 {
		return nil, apperrors.NewNoMatchingRecordsError(
			fmt.Sprintf("No procedure history found for Dr. %s.", match.MatchedName))
	}

	result.ProcedureCount = len(result.History)
	result.Message = fmt.Sprintf("Found %d procedures for Dr. %s.", result.ProcedureCount, match.MatchedName)
	return result, nil
}

func parseBound(value, field string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := store.ParseTime(value)
	if err != nil {
		return time.Time{}, apperrors.NewFieldValidationError(
			fmt.Sprintf("Invalid %s format. Use ISO 8601 (e.g., YYYY-MM-DDTHH:MM:SSZ).", field),
			[]string{field})
	}
	return t, nil
}
