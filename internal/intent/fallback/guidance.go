package fallback

import (
	"fmt"
	"strings"

	"procedure-assistant/internal/models"
)

const rateLimitMessage = "The assistant is receiving too many requests right now. Please wait a moment and try again."

// guidance names what is missing for intent and lists example doctor names.
func guidance(s models.Slots, examples []string) string {
	var b strings.Builder

	switch s.Intent {
	case models.IntentGetQuote:
		switch {
		case s.DoctorName == "" && s.ProcedureCode == "":
			b.WriteString("To get a cost quote I need the doctor's name and, optionally, the procedure code. ")
			b.WriteString(`For example: "Get quote for Dr. Sarah Johnson procedure CONS001".`)
		case s.DoctorName == "":
			fmt.Fprintf(&b, "I couldn't find cost data for procedure %s. Tell me which doctor performed it for a more specific quote.", s.ProcedureCode)
		case s.ProcedureCode != "":
			fmt.Fprintf(&b, "I couldn't find cost data for Dr. %s and procedure %s. Check the doctor's name or the procedure code.", s.DoctorName, s.ProcedureCode)
		default:
			fmt.Fprintf(&b, "I couldn't find cost data for Dr. %s. Check the doctor's name or add a procedure code.", s.DoctorName)
		}

	case models.IntentShowHistory:
		if s.DoctorName == "" {
			b.WriteString("To show procedure history I need the doctor's name. ")
			b.WriteString(`For example: "Show history for Dr. Sarah Johnson".`)
		} else {
			fmt.Fprintf(&b, "I couldn't find any procedure history for Dr. %s. Check the doctor's name.", s.DoctorName)
		}

	case models.IntentAddProcedure:
		missing := missingForAdd(s)
		if len(missing) == 0 {
			fmt.Fprintf(&b, "To add procedure %s for Dr. %s I also need the cost. ", s.ProcedureCode, s.DoctorName)
		} else {
			fmt.Fprintf(&b, "To add a procedure I still need the %s, and the cost. ", strings.Join(missing, " and "))
		}
		b.WriteString(`For example: "Add procedure CONS001 for Dr. Sarah Johnson costing $150".`)

	default:
		b.WriteString("I'm not sure what you'd like to do. I can get a cost quote, show procedure history or add a procedure. ")
		b.WriteString(`For example: "Get quote for Dr. Sarah Johnson procedure CONS001".`)
	}

	if len(examples) > 0 {
		fmt.Fprintf(&b, " Known doctors include: %s.", strings.Join(examples, ", "))
	}
	return b.String()
}

func rateLimitGuidance(s models.Slots, examples []string) string {
	return rateLimitMessage + " " + guidance(s, examples)
}

func missingForAdd(s models.Slots) []string {
	var missing []string
	if s.DoctorName == "" {
		missing = append(missing, "doctor's name")
	}
	if s.ProcedureCode == "" {
		missing = append(missing, "procedure code")
	}
	return missing
}
