// internal/workers/billing/get-quote/models.go
package getquote

import "procedure-assistant/internal/models"

type Input struct {
	DoctorName    string `json:"doctorName,omitempty"`
	ProcedureCode string `json:"procedureCode,omitempty"`
}

type Output struct {
	Message     string             `json:"message"`
	MedianCost  string             `json:"medianCost"`
	AverageCost string             `json:"averageCost"`
	SampleCount int                `json:"sampleCount"`
	Quote       models.QuoteResult `json:"quote"`
}
