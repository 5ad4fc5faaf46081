package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcedureTimeLayout is the ISO-8601 UTC layout used for stored timestamps.
const ProcedureTimeLayout = "2006-01-02T15:04:05Z"

// ProcedureRecord is one billed procedure, keyed by doctor name and procedure time.
type ProcedureRecord struct {
	DoctorName    string          `json:"doctorName"`
	ProcedureTime time.Time       `json:"procedureTime"`
	ProcedureCode string          `json:"procedureCode"`
	ProcedureName string          `json:"procedureName,omitempty"`
	Cost          decimal.Decimal `json:"cost"`
	TimeLogged    time.Time       `json:"timeLogged"`
}

// DisplayName is the procedure name, or the code when no name was recorded.
func (r ProcedureRecord) DisplayName() string {
	if r.ProcedureName != "" {
		return r.ProcedureName
	}
	return r.ProcedureCode
}

// FormatProcedureTime renders t in the stored layout.
func FormatProcedureTime(t time.Time) string {
	return t.UTC().Format(ProcedureTimeLayout)
}

type CostRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// QuoteRequest asks for cost statistics. At least one field must be set.
type QuoteRequest struct {
	DoctorName    string `json:"doctorName,omitempty"`
	ProcedureCode string `json:"procedureCode,omitempty"`
}

type QuoteResult struct {
	DoctorName      string          `json:"doctorName,omitempty"`
	ProcedureCode   string          `json:"procedureCode,omitempty"`
	ProcedureName   string          `json:"procedureName,omitempty"`
	MedianCost      decimal.Decimal `json:"medianCost"`
	AverageCost     decimal.Decimal `json:"averageCost"`
	SampleCount     int             `json:"sampleCount"`
	CostRange       CostRange       `json:"costRange"`
	ProcedureTypes  []string        `json:"procedureTypes,omitempty"`
	MatchConfidence float64         `json:"matchConfidence,omitempty"`
	Message         string          `json:"message"`
}

type HistoryQuery struct {
	DoctorName string `json:"doctorName"`
	Limit      int    `json:"limit,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
}

type HistoryEntry struct {
	Procedure     string          `json:"procedure"`
	ProcedureCode string          `json:"procedureCode"`
	Time          string          `json:"time"`
	Cost          decimal.Decimal `json:"cost"`
}

type HistoryResult struct {
	DoctorName      string          `json:"doctorName"`
	History         []HistoryEntry  `json:"history"`
	ProcedureCount  int             `json:"procedureCount"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	MatchConfidence float64         `json:"matchConfidence,omitempty"`
	Message         string          `json:"message"`
}

// AddProcedureRequest records a new procedure. Cost accepts JSON numbers and strings.
type AddProcedureRequest struct {
	DoctorName    string           `json:"doctorName"`
	ProcedureCode string           `json:"procedureCode"`
	ProcedureName string           `json:"procedureName,omitempty"`
	Cost          *decimal.Decimal `json:"cost"`
	ProcedureTime string           `json:"time,omitempty"`
	Confirmed     bool             `json:"confirmed,omitempty"`
}

type AddProcedureResult struct {
	Record          ProcedureRecord `json:"record"`
	MatchedExisting bool            `json:"matchedExisting"`
	MatchConfidence float64         `json:"matchConfidence"`
	Message         string          `json:"message"`
}
