package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

var errNoPool = fmt.Errorf("postgres: %w", repository.ErrStoreUnavailable)

// maxRangeItems caps date range queries.
const maxRangeItems = 1000

const itemColumns = `id::text, source_id, source_url, type, title, content, fields, images, link, published, pages, collected_at`

const insertItemQuery = `
	INSERT INTO data_items (source_id, source_url, type, title, content, fields, images, link, published, pages, collected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id::text;
`

// ItemRepoImpl provides a concrete implementation for the ItemRepository and
// ItemQueryRepository interfaces using PostgreSQL.
type ItemRepoImpl struct {
	db *pgxpool.Pool
}

// NewItemRepo creates a new instance of ItemRepoImpl. A nil pool yields a
// repository that reports the store as unavailable.
func NewItemRepo(db *pgxpool.Pool) *ItemRepoImpl {
	return &ItemRepoImpl{db: db}
}

// StoreItem inserts one item, stamping its collection time.
func (r *ItemRepoImpl) StoreItem(ctx context.Context, item entity.DataItem) (string, error) {
	if r.db == nil {
		return "", errNoPool
	}

	args, err := itemArgs(item, time.Now().UTC())
	if err != nil {
		return "", err
	}

	var id string
	if err := r.db.QueryRow(ctx, insertItemQuery, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// StoreItems inserts all items in one transaction using a batch.
func (r *ItemRepoImpl) StoreItems(ctx context.Context, items []entity.DataItem) ([]string, error) {
	if r.db == nil {
		return nil, errNoPool
	}
	if len(items) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, item := range items {
		args, err := itemArgs(item, now)
		if err != nil {
			return nil, err
		}
		batch.Queue(insertItemQuery, args...)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := tx.SendBatch(ctx, batch)
	ids := make([]string, 0, len(items))
	for range items {
		var id string
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, fmt.Errorf("insert items: %w", err)
		}
		ids = append(ids, id)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit items: %w", err)
	}
	return ids, nil
}

func itemArgs(item entity.DataItem, collectedAt time.Time) ([]any, error) {
	fieldsJSON, err := json.Marshal(item.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	images := item.Images
	if images == nil {
		images = []entity.ImageInfo{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	return []any{
		item.SourceID,
		item.SourceURL,
		string(item.Type),
		item.Title,
		item.Content,
		fieldsJSON,
		imagesJSON,
		item.Link,
		item.Published,
		item.Pages,
		collectedAt,
	}, nil
}

// SearchByKeyword matches the keyword against title and content, best matches first.
func (r *ItemRepoImpl) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]entity.DataItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM data_items
		WHERE search_vector @@ plainto_tsquery('simple', $1)
		   OR title ILIKE '%' || $1 || '%'
		ORDER BY ts_rank(search_vector, plainto_tsquery('simple', $1)) DESC, collected_at DESC
		LIMIT $2;
	`
	return r.queryItems(ctx, query, keyword, limit)
}

// FindBySource returns the newest items of a source.
func (r *ItemRepoImpl) FindBySource(ctx context.Context, sourceID string, limit int) ([]entity.DataItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM data_items
		WHERE source_id = $1
		ORDER BY collected_at DESC, id DESC
		LIMIT $2;
	`
	return r.queryItems(ctx, query, sourceID, limit)
}

// FindRecent returns the newest items across all sources.
func (r *ItemRepoImpl) FindRecent(ctx context.Context, limit int) ([]entity.DataItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM data_items
		ORDER BY collected_at DESC, id DESC
		LIMIT $1;
	`
	return r.queryItems(ctx, query, limit)
}

// FindByDateRange returns items collected within [start, end].
func (r *ItemRepoImpl) FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.DataItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM data_items
		WHERE collected_at BETWEEN $1 AND $2
		ORDER BY collected_at DESC
		LIMIT $3;
	`
	return r.queryItems(ctx, query, start, end, maxRangeItems)
}

// Stats aggregates source and item counts.
func (r *ItemRepoImpl) Stats(ctx context.Context) (*entity.Stats, error) {
	if r.db == nil {
		return nil, errNoPool
	}

	stats := &entity.Stats{DataBySource: []entity.SourceCount{}}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sources),
			(SELECT COUNT(*) FROM sources WHERE status = 'active'),
			(SELECT COUNT(*) FROM data_items);
	`).Scan(&stats.TotalSources, &stats.ActiveSources, &stats.TotalDataItems)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT source_id, COUNT(*)
		FROM data_items
		GROUP BY source_id
		ORDER BY COUNT(*) DESC;
	`)
	if err != nil {
		return nil, fmt.Errorf("count items by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc entity.SourceCount
		if err := rows.Scan(&sc.SourceID, &sc.Count); err != nil {
			return nil, err
		}
		stats.DataBySource = append(stats.DataBySource, sc)
	}
	return stats, rows.Err()
}

func (r *ItemRepoImpl) queryItems(ctx context.Context, query string, args ...any) ([]entity.DataItem, error) {
	if r.db == nil {
		return nil, errNoPool
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []entity.DataItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (entity.DataItem, error) {
	var (
		item       entity.DataItem
		typ        string
		fieldsJSON []byte
		imagesJSON []byte
	)
	err := row.Scan(
		&item.ID,
		&item.SourceID,
		&item.SourceURL,
		&typ,
		&item.Title,
		&item.Content,
		&fieldsJSON,
		&imagesJSON,
		&item.Link,
		&item.Published,
		&item.Pages,
		&item.CollectedAt,
	)
	if err != nil {
		return item, err
	}
	item.Type = entity.SourceType(typ)

	if err := json.Unmarshal(fieldsJSON, &item.Fields); err != nil {
		return item, fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal(imagesJSON, &item.Images); err != nil {
		return item, fmt.Errorf("decode images: %w", err)
	}
	return item, nil
}
