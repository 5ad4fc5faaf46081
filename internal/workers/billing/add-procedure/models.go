// internal/workers/billing/add-procedure/models.go
package addprocedure

import (
	"encoding/json"

	"procedure-assistant/internal/models"
)

type Input struct {
	DoctorName    string          `json:"doctorName"`
	ProcedureCode string          `json:"procedureCode"`
	ProcedureName string          `json:"procedureName,omitempty"`
	Cost          json.RawMessage `json:"cost"`
	Time          string          `json:"time,omitempty"`
	Confirmed     bool            `json:"confirmed,omitempty"`
}

type Output struct {
	Message         string                    `json:"message"`
	DoctorName      string                    `json:"doctorName"`
	ProcedureTime   string                    `json:"procedureTime"`
	MatchedExisting bool                      `json:"matchedExisting"`
	Result          models.AddProcedureResult `json:"result"`
}
