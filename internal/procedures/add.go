package procedures

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/models"
	"procedure-assistant/internal/store"
)

// AddProcedure records a procedure. The doctor name goes through the add
// policy: a close match is replaced by the stored spelling, a weaker one
// needs confirmation, and anything below Confirm is a new doctor.
func (s *Service) AddProcedure(ctx context.Context, req models.AddProcedureRequest) (*models.AddProcedureResult, error) {
	doctorInput := strings.TrimSpace(req.DoctorName)
	code := strings.ToUpper(strings.TrimSpace(req.ProcedureCode))

	var missing []string
	if doctorInput == "" {
		missing = append(missing, "doctorName")
	}
	if code == "" {
		missing = append(missing, "procedureCode")
	}
	if req.Cost == nil {
		missing = append(missing, "cost")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFieldValidationError(
			"Missing required parameters: doctorName, procedureCode, and cost.", missing)
	}
	if req.Cost.IsNegative() {
		return nil, apperrors.NewFieldValidationError("Cost must be a valid number.", []string{"cost"})
	}

	at := s.now().UTC()
	if strings.TrimSpace(req.ProcedureTime) != "" {
		t, err := store.ParseTime(req.ProcedureTime)
		if err != nil {
			return nil, apperrors.NewFieldValidationError(
				"Invalid time format. Use ISO 8601 (e.g., YYYY-MM-DDTHH:MM:SSZ).", []string{"time"})
		}
		at = t
	}
	at = at.Truncate(time.Second)

	match, err := s.matchDoctor(ctx, doctorInput)
	if err != nil {
		return nil, err
	}

	doctor := doctorInput
	matched := false
	switch {
	case match.Confidence >= s.policy.AutoAccept:
		doctor, matched = match.MatchedName, true
	case match.Confidence >= s.policy.Confirm:
		if !req.Confirmed {
			return nil, apperrors.NewConfirmationRequiredError(doctorInput, match.MatchedName, match.Confidence)
		}
		doctor, matched = match.MatchedName, true
	}

	name := strings.TrimSpace(req.ProcedureName)
	if name == "" {
		name = s.procedureName(code)
	}

	record := models.ProcedureRecord{
		DoctorName:    doctor,
		ProcedureTime: at,
		ProcedureCode: code,
		ProcedureName: name,
		Cost:          *req.Cost,
		TimeLogged:    at,
	}
	if err := s.store.Put(ctx, record); err != nil {
		return nil, apperrors.NewStoreWriteError(err)
	}

	if s.notifier != nil {
		if err := s.notifier.ProcedureRecorded(ctx, record); err != nil {
			s.logger.Warn("Procedure notification failed", map[string]interface{}{
				"doctorName": doctor,
				"error":      err.Error(),
			})
		}
	}

	msg := fmt.Sprintf("Procedure %q for Dr. %s added successfully at %s.",
		displayOr(name, code), doctor, models.FormatProcedureTime(at))
	if matched && doctor != doctorInput {
		msg += fmt.Sprintf(" Matched %q to existing doctor Dr. %s.", doctorInput, doctor)
	}

	s.logger.Info("Procedure added", map[string]interface{}{
		"doctorName":      doctor,
		"procedureCode":   code,
		"matchConfidence": match.Confidence,
		"matchedExisting": matched,
	})

	return &models.AddProcedureResult{
		Record:          record,
		MatchedExisting: matched,
		MatchConfidence: match.Confidence,
		Message:         msg,
	}, nil
}
