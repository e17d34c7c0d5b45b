package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

const uniqueViolation = "23505"

const sourceColumns = `id, name, url, type, selectors, max_items, wait_seconds, frequency, schedule_time,
	interval_minutes, status, description, category, created_at, updated_at`

// SourceRepoImpl provides a concrete implementation for the SourceRepository interface using PostgreSQL.
type SourceRepoImpl struct {
	db *pgxpool.Pool
}

// NewSourceRepo creates a new instance of SourceRepoImpl.
func NewSourceRepo(db *pgxpool.Pool) *SourceRepoImpl {
	return &SourceRepoImpl{db: db}
}

// Create inserts a source under a fresh UUID and fills in its timestamps.
func (r *SourceRepoImpl) Create(ctx context.Context, src *entity.Source) (string, error) {
	if r.db == nil {
		return "", errNoPool
	}

	selectors := src.Selectors
	if selectors == nil {
		selectors = entity.SelectorMap{}
	}
	selectorsJSON, err := json.Marshal(selectors)
	if err != nil {
		return "", fmt.Errorf("encode selectors: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	query := `
		INSERT INTO sources (` + sourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = r.db.Exec(ctx, query,
		id,
		src.Name,
		src.URL,
		string(src.Type),
		selectorsJSON,
		src.MaxItems,
		src.WaitSeconds,
		src.Frequency,
		src.TimeOfDay,
		src.IntervalMinutes,
		src.Status,
		src.Description,
		src.Category,
		now,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", repository.ErrSourceExists
		}
		return "", fmt.Errorf("insert source: %w", err)
	}

	src.ID = id
	src.CreatedAt = now
	src.UpdatedAt = now
	return id, nil
}

// Get returns repository.ErrSourceNotFound when no row matches.
func (r *SourceRepoImpl) Get(ctx context.Context, id string) (*entity.Source, error) {
	if r.db == nil {
		return nil, errNoPool
	}

	row := r.db.QueryRow(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = $1;`, id)
	src, err := scanSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// List returns sources ordered by creation time, filtered by status when given.
func (r *SourceRepoImpl) List(ctx context.Context, status string) ([]entity.Source, error) {
	if r.db == nil {
		return nil, errNoPool
	}

	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE $1::text = '' OR status = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []entity.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Delete removes a source and reports whether it existed.
func (r *SourceRepoImpl) Delete(ctx context.Context, id string) (bool, error) {
	if r.db == nil {
		return false, errNoPool
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1;`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanSource(row pgx.Row) (entity.Source, error) {
	var (
		src           entity.Source
		typ           string
		selectorsJSON []byte
	)
	err := row.Scan(
		&src.ID,
		&src.Name,
		&src.URL,
		&typ,
		&selectorsJSON,
		&src.MaxItems,
		&src.WaitSeconds,
		&src.Frequency,
		&src.TimeOfDay,
		&src.IntervalMinutes,
		&src.Status,
		&src.Description,
		&src.Category,
		&src.CreatedAt,
		&src.UpdatedAt,
	)
	if err != nil {
		return src, err
	}
	src.Type = entity.SourceType(typ)

	if err := json.Unmarshal(selectorsJSON, &src.Selectors); err != nil {
		return src, fmt.Errorf("decode selectors: %w", err)
	}
	return src, nil
}
