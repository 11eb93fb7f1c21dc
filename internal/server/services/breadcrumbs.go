package services

import (
	"context"
	"database/sql"

	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/repomanager"
	"blockvault/internal/treepath"
)

// BreadcrumbResolver turns a block's materialized path into its ordered
// ancestor chain. Used by the block browse API and the search engine.
type BreadcrumbResolver struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewBreadcrumbResolver(db *sql.DB, repos repomanager.RepositoryManager) *BreadcrumbResolver {
	return &BreadcrumbResolver{db: db, repos: repos}
}

// Resolve fetches all ancestors in one query and re-orders the result to
// match path order: an IN query returns rows in arbitrary order, so the
// rows are indexed by id and then walked in the order the path dictates.
// Ancestor ids that resolve to no row (or malformed path segments, already
// skipped by the codec) are dropped. Root blocks yield an empty list.
func (r *BreadcrumbResolver) Resolve(ctx context.Context, owner string, block *models.Block) ([]models.Crumb, error) {
	ids := treepath.AncestorIDs(block.Path)
	if len(ids) == 0 {
		return []models.Crumb{}, nil
	}

	ancestors, err := r.repos.Blocks(r.db).GetByIDs(ctx, owner, ids)
	if err != nil {
		return nil, storageErr(err)
	}

	byID := make(map[int64]*models.Block, len(ancestors))
	for _, a := range ancestors {
		byID[a.ID] = a
	}

	crumbs := make([]models.Crumb, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			continue
		}
		crumbs = append(crumbs, models.Crumb{ID: a.ID, UUID: a.UUID, Name: a.Name})
	}
	return crumbs, nil
}
