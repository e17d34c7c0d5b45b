// Package memory keeps extracted items in process, for one-off crawls that
// should not touch the database.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/user/source-crawler/internal/entity"
)

type ItemRepoImpl struct {
	mu    sync.Mutex
	items []entity.DataItem
	now   func() time.Time
}

func NewItemRepo() *ItemRepoImpl {
	return &ItemRepoImpl{now: time.Now}
}

func (r *ItemRepoImpl) StoreItem(_ context.Context, item entity.DataItem) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(item), nil
}

func (r *ItemRepoImpl) StoreItems(_ context.Context, items []entity.DataItem) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, r.add(item))
	}
	return ids, nil
}

// Items returns a copy of everything stored so far, in insertion order.
func (r *ItemRepoImpl) Items() []entity.DataItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.DataItem(nil), r.items...)
}

// add assumes r.mu is held.
func (r *ItemRepoImpl) add(item entity.DataItem) string {
	item.ID = strconv.Itoa(len(r.items) + 1)
	item.CollectedAt = r.now().UTC()
	r.items = append(r.items, item)
	return item.ID
}
