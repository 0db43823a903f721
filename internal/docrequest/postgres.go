package docrequest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brgy-santafe/registry/internal/shared/database"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// PostgresRepository stores requests and ID issuances in the requests
// schema.
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

func requestTable(archived bool) string {
	if archived {
		return "requests.document_request_complete"
	}
	return "requests.document_request"
}

func barangayIDTable(archived bool) string {
	if archived {
		return "requests.barangay_id_complete"
	}
	return "requests.barangay_id"
}

const requestColumns = "id, kind, requester, purpose, request_date, contact_email, payment_link, status, created_at, updated_at"

func (r *PostgresRepository) ListRequests(ctx context.Context, kind Kind, archived bool) ([]Request, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE kind = $1 ORDER BY created_at DESC",
		requestColumns, requestTable(archived))

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, string(kind))
	metrics.RecordDBQuery("request_list", time.Since(start))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list requests")
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan request")
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id types.ID) (*Request, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", requestColumns, requestTable(false))
	req, err := scanRequest(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("request", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find request")
	}
	return req, nil
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, req *Request) error {
	requester, err := json.Marshal(req.Requester)
	if err != nil {
		return errors.Wrap(err, "failed to marshal requester")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, requestTable(false), requestColumns)
	_, err = r.db.Pool.Exec(ctx, query,
		req.ID.String(), string(req.Kind), requester, req.Purpose, req.RequestDate,
		req.ContactEmail, req.PaymentLink, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert request")
	}
	return nil
}

func (r *PostgresRepository) UpdateRequest(ctx context.Context, req *Request) error {
	requester, err := json.Marshal(req.Requester)
	if err != nil {
		return errors.Wrap(err, "failed to marshal requester")
	}
	query := fmt.Sprintf(`UPDATE %s
		SET requester = $2, purpose = $3, request_date = $4, contact_email = $5,
		    payment_link = $6, status = $7, updated_at = $8
		WHERE id = $1`, requestTable(false))
	tag, err := r.db.Pool.Exec(ctx, query,
		req.ID.String(), requester, req.Purpose, req.RequestDate,
		req.ContactEmail, req.PaymentLink, req.Status, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to update request")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("request", req.ID.String())
	}
	return nil
}

func (r *PostgresRepository) DeleteRequest(ctx context.Context, id types.ID) error {
	tag, err := r.db.Pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", requestTable(false)), id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete request")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("request", id.String())
	}
	return nil
}

func (r *PostgresRepository) TransferRequest(ctx context.Context, id types.ID) error {
	return r.transferRow(ctx, requestTable(false), requestTable(true), requestColumns, "request", id)
}

func (r *PostgresRepository) ListBarangayIDs(ctx context.Context, archived bool) ([]BarangayID, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC",
		barangayIDColumns, barangayIDTable(archived))

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list barangay IDs")
	}
	defer rows.Close()

	var out []BarangayID
	for rows.Next() {
		bid, err := scanBarangayID(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan barangay ID")
		}
		out = append(out, *bid)
	}
	return out, rows.Err()
}

const barangayIDColumns = "id, igp_number, holder, address, birth_date, status, created_at, updated_at"

func (r *PostgresRepository) GetBarangayID(ctx context.Context, id types.ID) (*BarangayID, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", barangayIDColumns, barangayIDTable(false))
	bid, err := scanBarangayID(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("barangay ID", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find barangay ID")
	}
	return bid, nil
}

func (r *PostgresRepository) CreateBarangayID(ctx context.Context, bid *BarangayID) error {
	holder, err := json.Marshal(bid.Holder)
	if err != nil {
		return errors.Wrap(err, "failed to marshal holder")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, barangayIDTable(false), barangayIDColumns)
	_, err = r.db.Pool.Exec(ctx, query,
		bid.ID.String(), bid.IGPNumber, holder, bid.Address, bid.BirthDate,
		bid.Status, bid.CreatedAt, bid.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert barangay ID")
	}
	return nil
}

func (r *PostgresRepository) UpdateBarangayID(ctx context.Context, bid *BarangayID) error {
	holder, err := json.Marshal(bid.Holder)
	if err != nil {
		return errors.Wrap(err, "failed to marshal holder")
	}
	query := fmt.Sprintf(`UPDATE %s
		SET holder = $2, address = $3, birth_date = $4, status = $5, updated_at = $6
		WHERE id = $1`, barangayIDTable(false))
	tag, err := r.db.Pool.Exec(ctx, query,
		bid.ID.String(), holder, bid.Address, bid.BirthDate, bid.Status, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to update barangay ID")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("barangay ID", bid.ID.String())
	}
	return nil
}

func (r *PostgresRepository) DeleteBarangayID(ctx context.Context, id types.ID) error {
	tag, err := r.db.Pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", barangayIDTable(false)), id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete barangay ID")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("barangay ID", id.String())
	}
	return nil
}

func (r *PostgresRepository) TransferBarangayID(ctx context.Context, id types.ID) error {
	return r.transferRow(ctx, barangayIDTable(false), barangayIDTable(true), barangayIDColumns, "barangay ID", id)
}

func (r *PostgresRepository) MaxIGPNumber(ctx context.Context) (string, error) {
	query := fmt.Sprintf(`SELECT igp_number FROM (
			SELECT igp_number FROM %s
			UNION ALL
			SELECT igp_number FROM %s
		) all_ids
		ORDER BY COALESCE((regexp_match(igp_number, '[0-9]+'))[1]::bigint, 0) DESC
		LIMIT 1`, barangayIDTable(false), barangayIDTable(true))

	var value string
	err := r.db.Pool.QueryRow(ctx, query).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to scan for highest IGP number")
	}
	return value, nil
}

// transferRow moves one row between a live table and its archive.
// Unlike the case pipeline's cross-store copy, both tables sit behind
// one pool, so the move runs in a transaction.
func (r *PostgresRepository) transferRow(ctx context.Context, from, to, columns, resource string, id types.ID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transfer")
	}
	defer tx.Rollback(ctx)

	copyQuery := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE id = $1",
		to, columns, columns, from)
	tag, err := tx.Exec(ctx, copyQuery, id.String())
	if err != nil {
		return errors.Wrap(err, "failed to archive "+resource)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(resource, id.String())
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", from), id.String()); err != nil {
		return errors.Wrap(err, "failed to remove live "+resource)
	}
	return tx.Commit(ctx)
}

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		req       Request
		id        string
		kind      string
		requester []byte
	)
	err := row.Scan(&id, &kind, &requester, &req.Purpose, &req.RequestDate,
		&req.ContactEmail, &req.PaymentLink, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.ID = types.ID(id)
	req.Kind = Kind(kind)
	if err := json.Unmarshal(requester, &req.Requester); err != nil {
		return nil, fmt.Errorf("decode requester: %w", err)
	}
	return &req, nil
}

func scanBarangayID(row pgx.Row) (*BarangayID, error) {
	var (
		bid    BarangayID
		id     string
		holder []byte
	)
	err := row.Scan(&id, &bid.IGPNumber, &holder, &bid.Address, &bid.BirthDate,
		&bid.Status, &bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bid.ID = types.ID(id)
	if err := json.Unmarshal(holder, &bid.Holder); err != nil {
		return nil, fmt.Errorf("decode holder: %w", err)
	}
	return &bid, nil
}
