package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blockvault/internal/common"
	"blockvault/internal/dbx"
	"blockvault/internal/logging"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/blocks"
	"blockvault/internal/server/repositories/repomanager"
	"blockvault/internal/treepath"
)

// BlockService owns the block tree: create, read, list, update, move and
// cascade delete, plus breadcrumb resolution for browsing.
type BlockService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	resolver *BreadcrumbResolver
	logger   logging.Logger
}

func NewBlockService(db *sql.DB, repos repomanager.RepositoryManager, resolver *BreadcrumbResolver, logger logging.Logger) *BlockService {
	return &BlockService{db: db, repos: repos, resolver: resolver, logger: logger}
}

// CreateBlockInput carries the already-validated boundary values for a new
// block. ParentUUID nil means a root block.
type CreateBlockInput struct {
	Name        string
	Description string
	ParentUUID  *string
	Type        models.BlockType
}

// CreateBlock inserts a new block. The path is computed from the parent
// before the insert, so the stored row reflects its true ancestry from the
// start. Creating a child under a terminal parent is a validation error.
func (s *BlockService) CreateBlock(ctx context.Context, owner string, in CreateBlockInput) (*models.Block, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown block type %q", common.ErrorValidation, in.Type)
	}

	block := &models.Block{
		Name:        in.Name,
		Description: in.Description,
		Path:        treepath.Root,
		Type:        in.Type,
		CreatedBy:   owner,
	}

	if in.ParentUUID != nil {
		parent, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, *in.ParentUUID)
		if err != nil {
			return nil, storageErr(err)
		}
		if parent.Type != models.BlockTypeContainer {
			return nil, fmt.Errorf("%w: block %s cannot contain children", common.ErrorValidation, parent.UUID)
		}
		block.Path = treepath.ChildPath(parent.Path, parent.ID)
		block.ParentID = &parent.ID
	}

	created, err := s.repos.Blocks(s.db).Create(ctx, block)
	if err != nil {
		return nil, storageErr(err)
	}
	return created, nil
}

// GetBlock returns the owner's block by uuid. Absence (or another user's
// block) surfaces as common.ErrorNotFound.
func (s *BlockService) GetBlock(ctx context.Context, owner, uuid string) (*models.Block, error) {
	block, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}
	return block, nil
}

// ListChildrenQuery describes a page of a block's direct children. Cursor
// is opaque to callers; internally it is the sort-column value of the last
// item of the previous page.
type ListChildrenQuery struct {
	ParentUUID *string
	Limit      int
	Cursor     string
	SortBy     string
	SortDir    string
}

// ChildrenPage is one keyset page plus the aggregate child count.
type ChildrenPage struct {
	Items      []*models.Block
	Total      int64
	HasNext    bool
	NextCursor string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func childSortColumn(sortBy string) (blocks.SortColumn, error) {
	switch sortBy {
	case "", "createdAt":
		return blocks.SortByCreatedAt, nil
	case "updatedAt":
		return blocks.SortByUpdatedAt, nil
	case "name":
		return blocks.SortByName, nil
	default:
		return "", fmt.Errorf("%w: unknown sort column %q", common.ErrorValidation, sortBy)
	}
}

func sortDirection(dir string) (blocks.SortDir, error) {
	switch dir {
	case "", "desc":
		return blocks.SortDesc, nil
	case "asc":
		return blocks.SortAsc, nil
	default:
		return "", fmt.Errorf("%w: unknown sort direction %q", common.ErrorValidation, dir)
	}
}

// decodeChildCursor turns the serialized cursor back into a typed keyset
// boundary for the sort column.
func decodeChildCursor(cursor string, col blocks.SortColumn) (any, error) {
	if cursor == "" {
		return nil, nil
	}
	if col == blocks.SortByName {
		return cursor, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", common.ErrorValidation)
	}
	return ts, nil
}

// encodeChildCursor serializes the keyset boundary from the last item of
// the returned page.
func encodeChildCursor(b *models.Block, col blocks.SortColumn) string {
	switch col {
	case blocks.SortByName:
		return b.Name
	case blocks.SortByCreatedAt:
		return b.CreatedAt.Format(time.RFC3339Nano)
	default:
		return b.UpdatedAt.Format(time.RFC3339Nano)
	}
}

// ListChildren returns one page of direct children of the given parent (or
// of the root level when ParentUUID is nil). One extra row is fetched to
// detect hasNext without a count query; the displayed total comes from a
// separate aggregate.
func (s *BlockService) ListChildren(ctx context.Context, owner string, q ListChildrenQuery) (*ChildrenPage, error) {
	col, err := childSortColumn(q.SortBy)
	if err != nil {
		return nil, err
	}
	dir, err := sortDirection(q.SortDir)
	if err != nil {
		return nil, err
	}
	cursor, err := decodeChildCursor(q.Cursor, col)
	if err != nil {
		return nil, err
	}

	parentPath := treepath.Root
	if q.ParentUUID != nil {
		parent, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, *q.ParentUUID)
		if err != nil {
			return nil, storageErr(err)
		}
		parentPath = treepath.ChildPath(parent.Path, parent.ID)
	}

	limit := clampLimit(q.Limit)
	items, err := s.repos.Blocks(s.db).ListChildren(ctx, blocks.ChildrenQuery{
		Owner:      owner,
		ParentPath: parentPath,
		SortBy:     col,
		Dir:        dir,
		Limit:      limit + 1,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, storageErr(err)
	}

	page := &ChildrenPage{}
	page.HasNext = len(items) > limit
	if page.HasNext {
		items = items[:limit]
	}
	page.Items = items
	if page.HasNext && len(items) > 0 {
		page.NextCursor = encodeChildCursor(items[len(items)-1], col)
	}

	total, err := s.repos.Blocks(s.db).CountChildren(ctx, owner, parentPath)
	if err != nil {
		return nil, storageErr(err)
	}
	page.Total = total

	return page, nil
}

// UpdateBlock patches name and/or description. Path, type and parent are
// not touched here; moves go through MoveBlock.
func (s *BlockService) UpdateBlock(ctx context.Context, owner, uuid string, name, description *string) (*models.Block, error) {
	if name != nil && *name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", common.ErrorValidation)
	}

	repo := s.repos.Blocks(s.db)
	block, err := repo.GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}

	if name == nil && description == nil {
		return block, nil
	}

	if err := repo.Update(ctx, block.ID, name, description); err != nil {
		return nil, storageErr(err)
	}

	updated, err := repo.GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}
	return updated, nil
}

// MoveBlock reparents a block (or moves it to the root level when
// newParentUUID is nil), rewriting the paths of every descendant in the
// same transaction. A move into the block's own subtree is rejected, which
// is what keeps the tree acyclic.
func (s *BlockService) MoveBlock(ctx context.Context, owner, uuid string, newParentUUID *string) (*models.Block, error) {
	moving, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}

	oldPrefix := treepath.SubtreePrefix(moving.Path, moving.ID)

	newPath := treepath.Root
	var newParentID *int64
	if newParentUUID != nil {
		if *newParentUUID == moving.UUID {
			return nil, fmt.Errorf("%w: cannot move a block into itself", common.ErrorValidation)
		}
		parent, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, *newParentUUID)
		if err != nil {
			return nil, storageErr(err)
		}
		if parent.Type != models.BlockTypeContainer {
			return nil, fmt.Errorf("%w: block %s cannot contain children", common.ErrorValidation, parent.UUID)
		}
		if treepath.IsDescendantPath(parent.Path, oldPrefix) {
			return nil, fmt.Errorf("%w: cannot move a block into its own subtree", common.ErrorValidation)
		}
		newPath = treepath.ChildPath(parent.Path, parent.ID)
		newParentID = &parent.ID
	}

	newPrefix := treepath.SubtreePrefix(newPath, moving.ID)

	// Subtree repaint: primary row first, then every descendant row gets its
	// old prefix swapped for the new one. All inside one transaction; a
	// failure mid-repaint rolls everything back.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Blocks(tx)

		if err := repo.UpdatePlacement(ctx, moving.ID, newPath, newParentID); err != nil {
			return err
		}

		descendants, err := repo.SelectSubtree(ctx, owner, oldPrefix)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			repainted := treepath.RewritePrefix(d.Path, oldPrefix, newPrefix)
			if err := repo.UpdatePath(ctx, d.ID, repainted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "block moved", "uuid", moving.UUID, "from", moving.Path, "to", newPath)

	moved, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}
	return moved, nil
}

// DeleteBlock removes the block and its whole subtree. Fields and their
// satellite rows go first because the field-to-block foreign key has no
// cascade; block rows follow, all in one transaction.
func (s *BlockService) DeleteBlock(ctx context.Context, owner, uuid string) error {
	block, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return storageErr(err)
	}

	prefix := treepath.SubtreePrefix(block.Path, block.ID)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		blockRepo := s.repos.Blocks(tx)

		descendants, err := blockRepo.SelectSubtree(ctx, owner, prefix)
		if err != nil {
			return err
		}
		uuids := make([]string, 0, len(descendants)+1)
		uuids = append(uuids, block.UUID)
		for _, d := range descendants {
			uuids = append(uuids, d.UUID)
		}

		if err := s.repos.Fields(tx).DeleteByBlockUUIDs(ctx, owner, uuids); err != nil {
			return err
		}

		deleted, err := blockRepo.DeleteSubtree(ctx, owner, block.ID, prefix)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "block subtree deleted", "uuid", block.UUID, "blocks", deleted)
		return nil
	})
	return storageErr(err)
}

// Breadcrumbs returns the block's ancestor chain, root first.
func (s *BlockService) Breadcrumbs(ctx context.Context, owner, uuid string) ([]models.Crumb, error) {
	block, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}
	return s.resolver.Resolve(ctx, owner, block)
}
