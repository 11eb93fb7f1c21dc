package fields

import (
	"context"

	"blockvault/internal/server/models"
)

// FieldMatch pairs a name-matched field with its owning terminal block for
// the search engine's field-level query.
type FieldMatch struct {
	Field models.Field
	Block models.Block
}

type Repository interface {
	Create(ctx context.Context, f *models.Field) (*models.Field, error)
	InsertValue(ctx context.Context, f *models.Field) error
	GetByUUID(ctx context.Context, owner, uuid string) (*models.Field, error)
	ListByBlockUUID(ctx context.Context, owner, blockUUID string) ([]*models.Field, error)
	UpdateName(ctx context.Context, id int64, name string) error
	UpdateValue(ctx context.Context, f *models.Field) error
	Delete(ctx context.Context, id int64) error
	DeleteValue(ctx context.Context, uuid string, fieldType models.FieldType) error
	DeleteByBlockUUIDs(ctx context.Context, owner string, blockUUIDs []string) error
	SelectNameMatches(ctx context.Context, owner, substr string) ([]*FieldMatch, error)
}
