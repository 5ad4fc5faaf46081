package slots

import (
	"fmt"

	"procedure-assistant/internal/models"
)

// Prompt rebuilds the router prompt for slots that were changed after
// extraction, such as a doctor name replaced by its stored spelling.
func (e *Extractor) Prompt(text string, s models.Slots, prov Provenance) string {
	return e.enhancedPrompt(text, s, prov)
}

// enhancedPrompt rewrites text for the primary router. The fewer slots are
// known the looser the template; with nothing resolved beyond the literal text
// the text is returned unchanged.
func (e *Extractor) enhancedPrompt(text string, s models.Slots, prov Provenance) string {
	procedure := e.describeProcedure(s.ProcedureCode)

	switch {
	case s.FullySpecified():
		switch s.Intent {
		case models.IntentGetQuote:
			return fmt.Sprintf("Get a cost quote for procedure %s performed by Dr. %s.", procedure, s.DoctorName)
		case models.IntentShowHistory:
			return fmt.Sprintf("Show the procedure history for Dr. %s, focusing on procedure %s.", s.DoctorName, procedure)
		case models.IntentAddProcedure:
			return fmt.Sprintf("Add procedure %s for Dr. %s. Details from the user: %s", procedure, s.DoctorName, text)
		}

	case s.Intent != models.IntentNone && s.DoctorName != "":
		switch s.Intent {
		case models.IntentGetQuote:
			return fmt.Sprintf("Get a cost quote for procedures performed by Dr. %s. User request: %s", s.DoctorName, text)
		case models.IntentShowHistory:
			return fmt.Sprintf("Show the procedure history for Dr. %s.", s.DoctorName)
		case models.IntentAddProcedure:
			return fmt.Sprintf("Add a procedure for Dr. %s. Details from the user: %s", s.DoctorName, text)
		}

	case s.Intent != models.IntentNone && s.ProcedureCode != "":
		switch s.Intent {
		case models.IntentGetQuote:
			return fmt.Sprintf("Get a cost quote for procedure %s.", procedure)
		case models.IntentShowHistory:
			return fmt.Sprintf("Show procedure history for procedure %s. User request: %s", procedure, text)
		case models.IntentAddProcedure:
			return fmt.Sprintf("Add procedure %s. Details from the user: %s", procedure, text)
		}

	case s.Intent != models.IntentNone && prov.Intent == SourceContext:
		return fmt.Sprintf("%s (continuing the previous %s request)", text, describeIntent(s.Intent))

	case s.DoctorName != "" && s.ProcedureCode != "":
		return fmt.Sprintf("%s (doctor: Dr. %s, procedure: %s)", text, s.DoctorName, procedure)

	case s.DoctorName != "":
		return fmt.Sprintf("%s (doctor: Dr. %s)", text, s.DoctorName)

	case s.ProcedureCode != "":
		return fmt.Sprintf("%s (procedure: %s)", text, procedure)
	}
	return text
}

func (e *Extractor) describeProcedure(code string) string {
	if code == "" {
		return ""
	}
	if name := e.vocab.ProcedureName(code); name != "" {
		return fmt.Sprintf("%s (%s)", code, name)
	}
	return code
}

func describeIntent(i models.Intent) string {
	switch i {
	case models.IntentGetQuote:
		return "cost quote"
	case models.IntentShowHistory:
		return "procedure history"
	case models.IntentAddProcedure:
		return "add procedure"
	default:
		return string(i)
	}
}
