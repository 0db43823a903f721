// Package infrastructure provides the persistence backends for the
// case pipeline: one Postgres table per stage, plus an in-memory
// variant for tests.
package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brgy-santafe/registry/internal/case/domain"
	"github.com/brgy-santafe/registry/internal/shared/database"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

var stageTables = map[domain.Stage]string{
	domain.StageBlotter:         "cases.blotter",
	domain.StageBlotterComplete: "cases.blotter_complete",
	domain.StageLupon:           "cases.lupon",
	domain.StageLupon2:          "cases.lupon2",
	domain.StageLupon3:          "cases.lupon3",
	domain.StageLuponComplete:   "cases.lupon_complete",
	domain.StageCFA:             "cases.cfa",
	domain.StageCFAComplete:     "cases.cfa_complete",
}

// PostgresStore persists one stage's records in its own table.
type PostgresStore struct {
	db    *database.DB
	table string
}

func NewPostgresStore(db *database.DB, stage domain.Stage) (*PostgresStore, error) {
	table, ok := stageTables[stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	return &PostgresStore{db: db, table: table}, nil
}

// NewPostgresStores builds the full pipeline of stage stores over one
// connection pool.
func NewPostgresStores(db *database.DB) (domain.Stores, error) {
	stores := make(domain.Stores, len(stageTables))
	for stage := range stageTables {
		st, err := NewPostgresStore(db, stage)
		if err != nil {
			return nil, err
		}
		stores[stage] = st
	}
	return stores, nil
}

var _ domain.Store = (*PostgresStore)(nil)

const recordColumns = "id, case_number, complainants, complainees, narrative, status, fields, created_at, updated_at"

func (s *PostgresStore) FindByID(ctx context.Context, id types.ID) (*domain.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", recordColumns, s.table)

	start := time.Now()
	row := s.db.Pool.QueryRow(ctx, query, id.String())
	rec, err := scanRecord(row)
	metrics.RecordDBQuery("case_find_by_id", time.Since(start))

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case")
	}
	return rec, nil
}

func (s *PostgresStore) Find(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1", recordColumns, s.table)
	args := []any{}

	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.CaseNumber != "" {
		args = append(args, f.CaseNumber)
		query += fmt.Sprintf(" AND case_number = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	start := time.Now()
	rows, err := s.db.Pool.Query(ctx, query, args...)
	metrics.RecordDBQuery("case_find", time.Since(start))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case")
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// FindMaxByField orders by the numeric prefix of the addressed field so
// "SF-10" outranks "SF-9". Records without digits sort as zero.
func (s *PostgresStore) FindMaxByField(ctx context.Context, field string) (*domain.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		ORDER BY COALESCE((regexp_match(
			CASE WHEN $1 = 'caseNumber' THEN case_number ELSE fields->>$1 END,
			'[0-9]+'))[1]::bigint, 0) DESC
		LIMIT 1`, recordColumns, s.table)

	start := time.Now()
	row := s.db.Pool.QueryRow(ctx, query, field)
	rec, err := scanRecord(row)
	metrics.RecordDBQuery("case_find_max", time.Since(start))

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan for highest number")
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *domain.Record) error {
	if rec.ID.IsZero() {
		rec.ID = types.NewID()
	}
	complainants, complainees, fields, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table, recordColumns)

	start := time.Now()
	_, err = s.db.Pool.Exec(ctx, query,
		rec.ID.String(), rec.CaseNumber, complainants, complainees,
		rec.Narrative, string(rec.Status), fields, rec.CreatedAt, rec.UpdatedAt)
	metrics.RecordDBQuery("case_insert", time.Since(start))
	if err != nil {
		return errors.Wrap(err, "failed to insert case")
	}
	return nil
}

// Update replaces the mutable parts of a record. The id and case
// number columns are never written.
func (s *PostgresStore) Update(ctx context.Context, rec *domain.Record) error {
	complainants, complainees, fields, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s
		SET complainants = $2, complainees = $3, narrative = $4,
		    status = $5, fields = $6, updated_at = $7
		WHERE id = $1`, s.table)

	start := time.Now()
	tag, err := s.db.Pool.Exec(ctx, query,
		rec.ID.String(), complainants, complainees, rec.Narrative,
		string(rec.Status), fields, time.Now().UTC())
	metrics.RecordDBQuery("case_update", time.Since(start))
	if err != nil {
		return errors.Wrap(err, "failed to update case")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("case", rec.ID.String())
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id types.ID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)

	start := time.Now()
	tag, err := s.db.Pool.Exec(ctx, query, id.String())
	metrics.RecordDBQuery("case_delete", time.Since(start))
	if err != nil {
		return errors.Wrap(err, "failed to delete case")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("case", id.String())
	}
	return nil
}

func marshalRecord(rec *domain.Record) (complainants, complainees, fields []byte, err error) {
	if complainants, err = json.Marshal(rec.Complainants); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to marshal complainants")
	}
	if complainees, err = json.Marshal(rec.Complainees); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to marshal complainees")
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}
	if fields, err = json.Marshal(rec.Fields); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to marshal fields")
	}
	return complainants, complainees, fields, nil
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		rec          domain.Record
		id           string
		status       string
		complainants []byte
		complainees  []byte
		fields       []byte
	)
	err := row.Scan(&id, &rec.CaseNumber, &complainants, &complainees,
		&rec.Narrative, &status, &fields, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.ID = types.ID(id)
	rec.Status = domain.Status(status)
	if err := json.Unmarshal(complainants, &rec.Complainants); err != nil {
		return nil, fmt.Errorf("decode complainants: %w", err)
	}
	if err := json.Unmarshal(complainees, &rec.Complainees); err != nil {
		return nil, fmt.Errorf("decode complainees: %w", err)
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return &rec, nil
}
