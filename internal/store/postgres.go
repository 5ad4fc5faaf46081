package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"procedure-assistant/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS doctor_procedures (
	doctor_name    TEXT        NOT NULL,
	procedure_time TIMESTAMPTZ NOT NULL,
	procedure_code TEXT        NOT NULL,
	procedure_name TEXT,
	cost           NUMERIC(12,2) NOT NULL,
	time_logged    TIMESTAMPTZ,
	PRIMARY KEY (doctor_name, procedure_time)
);
CREATE INDEX IF NOT EXISTS idx_doctor_procedures_code ON doctor_procedures (procedure_code);`

const selectColumns = `doctor_name, procedure_time, procedure_code, procedure_name, cost, time_logged`

// columns maps table attribute names to SQL columns for ScanByAttribute.
var columns = map[string]string{
	AttrDoctorName:    "doctor_name",
	AttrProcedureCode: "procedure_code",
	AttrProcedureName: "procedure_name",
}

// PostgresStore keeps the same records in an indexed table, so the distinct
// name lookup is an index scan instead of a full table scan.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the table and index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate doctor_procedures: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDistinctNames(ctx context.Context) ([]string, error) {
	defer observe(BackendPostgres, "list_names", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT doctor_name FROM doctor_procedures ORDER BY doctor_name`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) QueryByName(ctx context.Context, doctorName string) ([]models.ProcedureRecord, error) {
	defer observe(BackendPostgres, "query_by_name", time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM doctor_procedures WHERE doctor_name = $1 ORDER BY procedure_time DESC`,
		doctorName,
	)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", doctorName, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) ScanByAttribute(ctx context.Context, attribute, value string) ([]models.ProcedureRecord, error) {
	defer observe(BackendPostgres, "scan_by_attribute", time.Now())

	column, ok := columns[attribute]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, attribute)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM doctor_procedures WHERE `+column+` = $1 ORDER BY procedure_time DESC`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("scan %s=%q: %w", attribute, value, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) Put(ctx context.Context, record models.ProcedureRecord) error {
	defer observe(BackendPostgres, "put", time.Now())

	var name sql.NullString
	if record.ProcedureName != "" {
		name = sql.NullString{String: record.ProcedureName, Valid: true}
	}
	var logged sql.NullTime
	if !record.TimeLogged.IsZero() {
		logged = sql.NullTime{Time: record.TimeLogged.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doctor_procedures (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (doctor_name, procedure_time) DO UPDATE SET
			procedure_code = EXCLUDED.procedure_code,
			procedure_name = EXCLUDED.procedure_name,
			cost = EXCLUDED.cost,
			time_logged = EXCLUDED.time_logged`,
		record.DoctorName,
		record.ProcedureTime.UTC(),
		record.ProcedureCode,
		name,
		record.Cost.String(),
		logged,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.ProcedureRecord, error) {
	records := []models.ProcedureRecord{}
	for rows.Next() {
		var (
			rec    models.ProcedureRecord
			name   sql.NullString
			cost   string
			logged sql.NullTime
		)
		if err := rows.Scan(&rec.DoctorName, &rec.ProcedureTime, &rec.ProcedureCode, &name, &cost, &logged); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		d, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("parse cost %q: %w", cost, err)
		}
		rec.Cost = d
		rec.ProcedureName = name.String
		rec.ProcedureTime = rec.ProcedureTime.UTC()
		if logged.Valid {
			rec.TimeLogged = logged.Time.UTC()
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
