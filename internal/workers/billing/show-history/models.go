// internal/workers/billing/show-history/models.go
package showhistory

import "procedure-assistant/internal/models"

type Input struct {
	DoctorName string `json:"doctorName"`
	Limit      int    `json:"limit,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
}

type Output struct {
	Message        string               `json:"message"`
	ProcedureCount int                  `json:"procedureCount"`
	TotalCost      string               `json:"totalCost"`
	History        models.HistoryResult `json:"history"`
}
