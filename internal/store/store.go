// Package store persists billed procedures. Every backend exposes the same
// key layout: records are keyed by doctor name and procedure time.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"procedure-assistant/internal/models"
)

// Attribute names, shared by all backends.
const (
	AttrDoctorName    = "DoctorName"
	AttrProcedureTime = "ProcedureTime"
	AttrProcedureCode = "procedure_code"
	AttrProcedureName = "procedure_name"
	AttrCost          = "cost"
	AttrTimeLogged    = "time_logged"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// ErrUnsupportedAttribute is returned by ScanByAttribute for unknown attributes.
var ErrUnsupportedAttribute = errors.New("unsupported attribute")

// Store is the procedure table.
type Store interface {
	// ListDistinctNames returns every doctor name once, sorted.
	ListDistinctNames(ctx context.Context) ([]string, error)
	// QueryByName returns the doctor's records, newest first.
	QueryByName(ctx context.Context, doctorName string) ([]models.ProcedureRecord, error)
	// ScanByAttribute returns all records whose attribute equals value.
	ScanByAttribute(ctx context.Context, attribute, value string) ([]models.ProcedureRecord, error)
	Put(ctx context.Context, record models.ProcedureRecord) error
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the ISO-8601 forms found in the table and returns UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func sortNewestFirst(records []models.ProcedureRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ProcedureTime.After(records[j].ProcedureTime)
	})
}

func distinctSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
