package journal

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
)

// NopCache is the cache used when no backend is configured: every read is a
// miss and every write is dropped.
type NopCache struct{}

func (NopCache) Recent(context.Context, uuid.UUID) ([]*domain.UndoRecord, bool)  { return nil, false }
func (NopCache) Generation(context.Context, uuid.UUID) (uint64, bool)           { return 0, false }
func (NopCache) Store(context.Context, uuid.UUID, uint64, []*domain.UndoRecord) {}
func (NopCache) Push(context.Context, *domain.UndoRecord)                       {}
func (NopCache) Replace(context.Context, *domain.UndoRecord)                    {}
func (NopCache) Evict(context.Context, uuid.UUID, []int64)                      {}
func (NopCache) Invalidate(context.Context, uuid.UUID)                          {}
