package official

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brgy-santafe/registry/internal/shared/database"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// Repository persists the officials roster.
type Repository interface {
	List(ctx context.Context, position string) ([]Official, error)
	Get(ctx context.Context, id types.ID) (*Official, error)
	Create(ctx context.Context, o *Official) error
	Update(ctx context.Context, o *Official) error
	Delete(ctx context.Context, id types.ID) error

	// FindByPosition returns the holder of a position, nil when vacant.
	// Used to enforce single-holder positions. excludeID skips one
	// record so updates do not collide with themselves.
	FindByPosition(ctx context.Context, position string, excludeID types.ID) (*Official, error)

	// FindByName returns an official by full name, nil when absent. A
	// person holds at most one seat.
	FindByName(ctx context.Context, name types.PersonName, excludeID types.ID) (*Official, error)
}

// PostgresRepository stores the roster in barangay.officials.
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const officialColumns = "id, first_name, middle_name, last_name, position, photo_url, created_at, updated_at"

func (r *PostgresRepository) List(ctx context.Context, position string) ([]Official, error) {
	query := "SELECT " + officialColumns + " FROM barangay.officials"
	args := []any{}
	if position != "" {
		query += " WHERE position = $1"
		args = append(args, position)
	}
	query += " ORDER BY position, last_name"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list officials")
	}
	defer rows.Close()

	var out []Official
	for rows.Next() {
		o, err := scanOfficial(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan official")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id types.ID) (*Official, error) {
	query := "SELECT " + officialColumns + " FROM barangay.officials WHERE id = $1"
	o, err := scanOfficial(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("official", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find official")
	}
	return o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, o *Official) error {
	query := `INSERT INTO barangay.officials (` + officialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, query,
		o.ID.String(), o.Name.FirstName, o.Name.MiddleName, o.Name.LastName,
		o.Position, o.PhotoURL, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert official")
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, o *Official) error {
	query := `UPDATE barangay.officials
		SET first_name = $2, middle_name = $3, last_name = $4,
		    position = $5, photo_url = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, query,
		o.ID.String(), o.Name.FirstName, o.Name.MiddleName, o.Name.LastName,
		o.Position, o.PhotoURL, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to update official")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("official", o.ID.String())
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id types.ID) error {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM barangay.officials WHERE id = $1", id.String())
	if err != nil {
		return errors.Wrap(err, "failed to delete official")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("official", id.String())
	}
	return nil
}

func (r *PostgresRepository) FindByPosition(ctx context.Context, position string, excludeID types.ID) (*Official, error) {
	query := "SELECT " + officialColumns + " FROM barangay.officials WHERE position = $1 AND id <> $2 LIMIT 1"
	o, err := scanOfficial(r.db.Pool.QueryRow(ctx, query, position, excludeID.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to check position")
	}
	return o, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name types.PersonName, excludeID types.ID) (*Official, error) {
	query := `SELECT ` + officialColumns + ` FROM barangay.officials
		WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2) AND id <> $3
		LIMIT 1`
	o, err := scanOfficial(r.db.Pool.QueryRow(ctx, query, name.FirstName, name.LastName, excludeID.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to check name")
	}
	return o, nil
}

func scanOfficial(row pgx.Row) (*Official, error) {
	var (
		o  Official
		id string
	)
	err := row.Scan(&id, &o.Name.FirstName, &o.Name.MiddleName, &o.Name.LastName,
		&o.Position, &o.PhotoURL, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ID = types.ID(id)
	return &o, nil
}

// MemoryRepository backs the module in tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	officials map[types.ID]*Official
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{officials: make(map[types.ID]*Official)}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) List(_ context.Context, position string) ([]Official, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Official
	for _, o := range r.officials {
		if position == "" || o.Position == position {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id types.ID) (*Official, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.officials[id]
	if !ok {
		return nil, errors.NotFound("official", id.String())
	}
	cp := *o
	return &cp, nil
}

func (r *MemoryRepository) Create(_ context.Context, o *Official) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	r.officials[o.ID] = &cp
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, o *Official) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.officials[o.ID]; !ok {
		return errors.NotFound("official", o.ID.String())
	}
	cp := *o
	r.officials[o.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.officials[id]; !ok {
		return errors.NotFound("official", id.String())
	}
	delete(r.officials, id)
	return nil
}

func (r *MemoryRepository) FindByPosition(_ context.Context, position string, excludeID types.ID) (*Official, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.officials {
		if o.Position == position && o.ID != excludeID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) FindByName(_ context.Context, name types.PersonName, excludeID types.ID) (*Official, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.officials {
		if strings.EqualFold(o.Name.FirstName, name.FirstName) &&
			strings.EqualFold(o.Name.LastName, name.LastName) && o.ID != excludeID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}
