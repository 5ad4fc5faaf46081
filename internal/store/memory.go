package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	"procedure-assistant/internal/models"
)

// MemoryStore is a process-local store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.ProcedureRecord
}

func NewMemoryStore(records ...models.ProcedureRecord) *MemoryStore {
	s := &MemoryStore{records: make(map[string]models.ProcedureRecord)}
	for _, r := range records {
		s.records[key(r)] = r
	}
	return s
}

func key(r models.ProcedureRecord) string {
	return r.DoctorName + "\x00" + models.FormatProcedureTime(r.ProcedureTime)
}

func (s *MemoryStore) ListDistinctNames(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.DoctorName)
	}
	return distinctSorted(names), nil
}

func (s *MemoryStore) QueryByName(_ context.Context, doctorName string) ([]models.ProcedureRecord, error) {
	return s.filter(func(r models.ProcedureRecord) bool { return r.DoctorName == doctorName }), nil
}

func (s *MemoryStore) ScanByAttribute(_ context.Context, attribute, value string) ([]models.ProcedureRecord, error) {
	var get func(models.ProcedureRecord) string
	switch attribute {
	case AttrDoctorName:
		get = func(r models.ProcedureRecord) string { return r.DoctorName }
	case AttrProcedureCode:
		get = func(r models.ProcedureRecord) string { return r.ProcedureCode }
	case AttrProcedureName:
		get = func(r models.ProcedureRecord) string { return r.ProcedureName }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, attribute)
	}
	return s.filter(func(r models.ProcedureRecord) bool { return get(r) == value }), nil
}

func (s *MemoryStore) Put(_ context.Context, record models.ProcedureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(record)] = record
	return nil
}

func (s *MemoryStore) filter(keep func(models.ProcedureRecord) bool) []models.ProcedureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ProcedureRecord{}
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out
}

// seedItem mirrors the table's JSON export format.
type seedItem struct {
	DoctorName    string          `json:"DoctorName"`
	ProcedureTime string          `json:"ProcedureTime"`
	ProcedureCode string          `json:"procedure_code"`
	ProcedureName string          `json:"procedure_name"`
	Cost          decimal.Decimal `json:"cost"`
	TimeLogged    string          `json:"time_logged"`
}

// LoadSeedFile reads records from a JSON array in the table's export format.
func LoadSeedFile(path string) ([]models.ProcedureRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var items []seedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	records := make([]models.ProcedureRecord, 0, len(items))
	for i, it := range items {
		pt, err := ParseTime(it.ProcedureTime)
		if err != nil {
			return nil, fmt.Errorf("seed item %d: invalid ProcedureTime %q", i, it.ProcedureTime)
		}
		rec := models.ProcedureRecord{
			DoctorName:    it.DoctorName,
			ProcedureTime: pt,
			ProcedureCode: it.ProcedureCode,
			ProcedureName: it.ProcedureName,
			Cost:          it.Cost,
		}
		if lt, err := ParseTime(it.TimeLogged); err == nil {
			rec.TimeLogged = lt
		}
		records = append(records, rec)
	}
	return records, nil
}
