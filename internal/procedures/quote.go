package procedures

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/models"
	"procedure-assistant/internal/store"
)

var two = decimal.NewFromInt(2)

// GetQuote computes cost statistics for a doctor, a procedure code or both.
// With a doctor the doctor's records are used (filtered by code when given);
// with only a code every doctor's records for that code are used.
func (s *Service) GetQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error) {
	doctorInput := strings.TrimSpace(req.DoctorName)
	code := strings.ToUpper(strings.TrimSpace(req.ProcedureCode))
	if doctorInput == "" && code == "" {
		return nil, apperrors.NewFieldValidationError(
			"Missing required parameter: doctorName or procedureCode.",
			[]string{"doctorName", "procedureCode"})
	}

	result := &models.QuoteResult{ProcedureCode: code}

	var records []models.ProcedureRecord
	if doctorInput != "" {
		match, err := s.resolveForQuery(ctx, doctorInput)
		if err != nil {
			return nil, err
		}
		result.DoctorName = match.MatchedName
		result.MatchConfidence = match.Confidence

		all, err := s.store.QueryByName(ctx, match.MatchedName)
		if err != nil {
			return nil, apperrors.NewStoreQueryError("query by name", err)
		}
		records = filterByCode(all, code)
	} else {
		all, err := s.store.ScanByAttribute(ctx, store.AttrProcedureCode, code)
		if err != nil {
			return nil, apperrors.NewStoreQueryError("scan by procedure code", err)
		}
		records = all
	}

	if len(records) == 0 {
		return nil, apperrors.NewNoMatchingRecordsError(noQuoteMessage(result.DoctorName, code))
	}

	costs := make([]decimal.Decimal, 0, len(records))
	for _, r := range records {
		costs = append(costs, r.Cost)
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].LessThan(costs[j]) })

	result.SampleCount = len(costs)
	result.MedianCost = median(costs).Round(2)
	result.AverageCost = decimal.Sum(costs[0], costs[1:]...).Div(decimal.NewFromInt(int64(len(costs)))).Round(2)
	result.CostRange = models.CostRange{Min: costs[0], Max: costs[len(costs)-1]}
	result.ProcedureTypes = procedureTypes(records)
	if code != "" {
		result.ProcedureName = records[0].ProcedureName
		if result.ProcedureName == "" {
			result.ProcedureName = s.procedureName(code)
		}
	}
	result.Message = quoteMessage(doctorInput, result)

	s.logger.Info("Quote computed", map[string]interface{}{
		"doctorName":    result.DoctorName,
		"procedureCode": code,
		"sampleCount":   result.SampleCount,
	})
	return result, nil
}

func filterByCode(records []models.ProcedureRecord, code string) []models.ProcedureRecord {
	if code == "" {
		return records
	}
	out := make([]models.ProcedureRecord, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(r.ProcedureCode, code) {
			out = append(out, r)
		}
	}
	return out
}

// median expects sorted input.
func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(two)
}

func procedureTypes(records []models.ProcedureRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		name := r.DisplayName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func noQuoteMessage(doctor, code string) string {
	switch {
	case doctor == "":
		return fmt.Sprintf("Procedure code %q not found or no associated cost data.", code)
	case code == "":
		return fmt.Sprintf("No cost data found for Dr. %s.", doctor)
	default:
		return fmt.Sprintf("No cost data found for procedure %s performed by Dr. %s.", code, doctor)
	}
}

func quoteMessage(input string, r *models.QuoteResult) string {
	var msg string
	rng := fmt.Sprintf("range $%s to $%s", r.CostRange.Min.StringFixed(2), r.CostRange.Max.StringFixed(2))

	switch {
	case r.DoctorName == "":
		msg = fmt.Sprintf("The estimated cost for procedure %q (%s) is $%s. The median is $%s across %d procedures (%s).",
			displayOr(r.ProcedureName, r.ProcedureCode), r.ProcedureCode, r.AverageCost.StringFixed(2),
			r.MedianCost.StringFixed(2), r.SampleCount, rng)
	case r.ProcedureCode == "":
		msg = fmt.Sprintf("The median cost of procedures performed by Dr. %s is $%s across %d procedures (%s).",
			r.DoctorName, r.MedianCost.StringFixed(2), r.SampleCount, rng)
	default:
		msg = fmt.Sprintf("The median cost for procedure %q (%s) performed by Dr. %s is $%s across %d procedures (%s).",
			displayOr(r.ProcedureName, r.ProcedureCode), r.ProcedureCode, r.DoctorName,
			r.MedianCost.StringFixed(2), r.SampleCount, rng)
	}

	if r.DoctorName != "" && !strings.EqualFold(input, r.DoctorName) {
		msg += fmt.Sprintf(" Showing results for Dr. %s (closest match to %q).", r.DoctorName, input)
	}
	return msg
}

func displayOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
