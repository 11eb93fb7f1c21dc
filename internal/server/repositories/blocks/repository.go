package blocks

import (
	"context"

	"blockvault/internal/server/models"
)

// SortColumn is a whitelisted ORDER BY column for child listings.
type SortColumn string

const (
	SortByName      SortColumn = "name"
	SortByCreatedAt SortColumn = "created_at"
	SortByUpdatedAt SortColumn = "updated_at"
)

// Valid reports whether c is one of the whitelisted columns. Column names
// are interpolated into SQL, so anything else must be rejected up front.
func (c SortColumn) Valid() bool {
	return c == SortByName || c == SortByCreatedAt || c == SortByUpdatedAt
}

// SortDir is the ORDER BY direction.
type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// ChildrenQuery describes one keyset-paginated page of a block's direct
// children. ParentPath is the exact path every child row carries. Cursor is
// nil for the first page; otherwise it is the SortBy value of the last item
// of the previous page (string for name, time.Time for timestamps).
type ChildrenQuery struct {
	Owner      string
	ParentPath string
	SortBy     SortColumn
	Dir        SortDir
	Limit      int
	Cursor     any
}

type Repository interface {
	Create(ctx context.Context, b *models.Block) (*models.Block, error)
	GetByUUID(ctx context.Context, owner, uuid string) (*models.Block, error)
	GetByIDs(ctx context.Context, owner string, ids []int64) ([]*models.Block, error)
	ListChildren(ctx context.Context, q ChildrenQuery) ([]*models.Block, error)
	CountChildren(ctx context.Context, owner, parentPath string) (int64, error)
	Update(ctx context.Context, id int64, name, description *string) error
	UpdatePlacement(ctx context.Context, id int64, path string, parentID *int64) error
	UpdatePath(ctx context.Context, id int64, path string) error
	SelectSubtree(ctx context.Context, owner, prefix string) ([]*models.Block, error)
	DeleteSubtree(ctx context.Context, owner string, id int64, prefix string) (int64, error)
	SelectMatching(ctx context.Context, owner, substr string, blockType models.BlockType) ([]*models.Block, error)
}
