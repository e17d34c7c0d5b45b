package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/source-crawler/internal/entity"
)

// CrawlLogRepoImpl provides a concrete implementation for the CrawlLogRepository interface using PostgreSQL.
type CrawlLogRepoImpl struct {
	db *pgxpool.Pool
}

// NewCrawlLogRepo creates a new instance of CrawlLogRepoImpl.
func NewCrawlLogRepo(db *pgxpool.Pool) *CrawlLogRepoImpl {
	return &CrawlLogRepoImpl{db: db}
}

// LogResult appends a crawl outcome. The log time is assigned by the database.
func (r *CrawlLogRepoImpl) LogResult(ctx context.Context, result entity.CrawlResult) (string, error) {
	if r.db == nil {
		return "", errNoPool
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO crawl_logs (source_id, url, status, items_collected, errors)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text;
	`
	var id string
	err = r.db.QueryRow(ctx, query,
		result.SourceID,
		result.URL,
		string(result.Status),
		result.ItemsCollected,
		errorsJSON,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert crawl log: %w", err)
	}
	return id, nil
}

// Recent returns the newest crawl log entries first.
func (r *CrawlLogRepoImpl) Recent(ctx context.Context, limit int) ([]entity.CrawlResult, error) {
	if r.db == nil {
		return nil, errNoPool
	}

	query := `
		SELECT id::text, source_id, url, status, items_collected, errors, logged_at
		FROM crawl_logs
		ORDER BY logged_at DESC, id DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []entity.CrawlResult{}
	for rows.Next() {
		var (
			res        entity.CrawlResult
			status     string
			errorsJSON []byte
		)
		if err := rows.Scan(&res.ID, &res.SourceID, &res.URL, &status, &res.ItemsCollected, &errorsJSON, &res.LoggedAt); err != nil {
			return nil, err
		}
		res.Status = entity.CrawlStatusValue(status)
		if err := json.Unmarshal(errorsJSON, &res.Errors); err != nil {
			return nil, fmt.Errorf("decode crawl errors: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
