package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"blockvault/internal/common"
	"blockvault/internal/cryptox"
	"blockvault/internal/dbx"
	"blockvault/internal/logging"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/blocks"
	"blockvault/internal/server/repositories/fields"
	"blockvault/internal/server/repositories/refreshtokens"
	"blockvault/internal/server/repositories/users"
)

var commonNotFound = common.ErrorNotFound

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testEncryptor(t *testing.T) *cryptox.Encryptor {
	t.Helper()
	enc, err := cryptox.NewEncryptor(make([]byte, 32))
	require.NoError(t, err)
	return enc
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// stubRepoManager hands out the same fake repositories regardless of the
// DB handle, so service logic can be tested without SQL.
type stubRepoManager struct {
	blocks blocks.Repository
	fields fields.Repository
	users  users.Repository
	tokens refreshtokens.Repository
}

func (m *stubRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *stubRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *stubRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return m.tokens }
func (m *stubRepoManager) Blocks(db dbx.DBTX) blocks.Repository                { return m.blocks }
func (m *stubRepoManager) Fields(db dbx.DBTX) fields.Repository                { return m.fields }

type pathUpdate struct {
	ID   int64
	Path string
}

type placementUpdate struct {
	ID       int64
	Path     string
	ParentID *int64
}

// fakeBlocksRepo is an in-memory blocks.Repository with injectable errors
// and a shared call log for ordering assertions.
type fakeBlocksRepo struct {
	byUUID   map[string]*models.Block
	byID     map[int64]*models.Block
	subtree  []*models.Block
	children []*models.Block
	total    int64
	matching []*models.Block

	nextID int64

	placements  []placementUpdate
	pathUpdates []pathUpdate
	deletedIDs  []int64

	errOn map[string]error
	calls *[]string
}

func newFakeBlocksRepo() *fakeBlocksRepo {
	log := []string{}
	return &fakeBlocksRepo{
		byUUID: map[string]*models.Block{},
		byID:   map[int64]*models.Block{},
		errOn:  map[string]error{},
		calls:  &log,
		nextID: 1,
	}
}

func (r *fakeBlocksRepo) add(b *models.Block) *models.Block {
	r.byUUID[b.UUID] = b
	r.byID[b.ID] = b
	return b
}

func (r *fakeBlocksRepo) record(name string) error {
	*r.calls = append(*r.calls, name)
	return r.errOn[name]
}

func (r *fakeBlocksRepo) Create(ctx context.Context, b *models.Block) (*models.Block, error) {
	if err := r.record("blocks.Create"); err != nil {
		return nil, err
	}
	b.ID = r.nextID
	r.nextID++
	if b.UUID == "" {
		b.UUID = "uuid-" + time.Now().Format("150405.000000000")
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	r.add(b)
	return b, nil
}

func (r *fakeBlocksRepo) GetByUUID(ctx context.Context, owner, uuid string) (*models.Block, error) {
	if err := r.record("blocks.GetByUUID"); err != nil {
		return nil, err
	}
	b, ok := r.byUUID[uuid]
	if !ok || b.CreatedBy != owner {
		return nil, commonNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBlocksRepo) GetByIDs(ctx context.Context, owner string, ids []int64) ([]*models.Block, error) {
	if err := r.record("blocks.GetByIDs"); err != nil {
		return nil, err
	}
	// Deliberately iterate the map, not the requested order; the resolver
	// must reorder.
	var out []*models.Block
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for id, b := range r.byID {
		if seen[id] && b.CreatedBy == owner {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeBlocksRepo) ListChildren(ctx context.Context, q blocks.ChildrenQuery) ([]*models.Block, error) {
	if err := r.record("blocks.ListChildren"); err != nil {
		return nil, err
	}
	out := r.children
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakeBlocksRepo) CountChildren(ctx context.Context, owner, parentPath string) (int64, error) {
	if err := r.record("blocks.CountChildren"); err != nil {
		return 0, err
	}
	return r.total, nil
}

func (r *fakeBlocksRepo) Update(ctx context.Context, id int64, name, description *string) error {
	if err := r.record("blocks.Update"); err != nil {
		return err
	}
	b, ok := r.byID[id]
	if !ok {
		return commonNotFound
	}
	if name != nil {
		b.Name = *name
	}
	if description != nil {
		b.Description = *description
	}
	return nil
}

func (r *fakeBlocksRepo) UpdatePlacement(ctx context.Context, id int64, path string, parentID *int64) error {
	if err := r.record("blocks.UpdatePlacement"); err != nil {
		return err
	}
	r.placements = append(r.placements, placementUpdate{ID: id, Path: path, ParentID: parentID})
	if b, ok := r.byID[id]; ok {
		b.Path = path
		b.ParentID = parentID
	}
	return nil
}

func (r *fakeBlocksRepo) UpdatePath(ctx context.Context, id int64, path string) error {
	if err := r.record("blocks.UpdatePath"); err != nil {
		return err
	}
	r.pathUpdates = append(r.pathUpdates, pathUpdate{ID: id, Path: path})
	if b, ok := r.byID[id]; ok {
		b.Path = path
	}
	return nil
}

func (r *fakeBlocksRepo) SelectSubtree(ctx context.Context, owner, prefix string) ([]*models.Block, error) {
	if err := r.record("blocks.SelectSubtree"); err != nil {
		return nil, err
	}
	return r.subtree, nil
}

func (r *fakeBlocksRepo) DeleteSubtree(ctx context.Context, owner string, id int64, prefix string) (int64, error) {
	if err := r.record("blocks.DeleteSubtree"); err != nil {
		return 0, err
	}
	r.deletedIDs = append(r.deletedIDs, id)
	return int64(len(r.subtree)) + 1, nil
}

func (r *fakeBlocksRepo) SelectMatching(ctx context.Context, owner, substr string, blockType models.BlockType) ([]*models.Block, error) {
	if err := r.record("blocks.SelectMatching"); err != nil {
		return nil, err
	}
	return r.matching, nil
}

// fakeFieldsRepo is an in-memory fields.Repository sharing the call log
// with its sibling blocks repo.
type fakeFieldsRepo struct {
	byUUID  map[string]*models.Field
	byBlock map[string][]*models.Field
	matches []*fields.FieldMatch

	nextID int64

	created       []*models.Field
	values        []*models.Field
	deletedValues []string
	deletedIDs    []int64
	cascades      [][]string

	errOn map[string]error
	calls *[]string
}

func newFakeFieldsRepo(calls *[]string) *fakeFieldsRepo {
	if calls == nil {
		log := []string{}
		calls = &log
	}
	return &fakeFieldsRepo{
		byUUID:  map[string]*models.Field{},
		byBlock: map[string][]*models.Field{},
		errOn:   map[string]error{},
		calls:   calls,
		nextID:  1,
	}
}

func (r *fakeFieldsRepo) record(name string) error {
	*r.calls = append(*r.calls, name)
	return r.errOn[name]
}

func (r *fakeFieldsRepo) add(f *models.Field) {
	r.byUUID[f.UUID] = f
	r.byBlock[f.BlockUUID] = append(r.byBlock[f.BlockUUID], f)
}

func (r *fakeFieldsRepo) Create(ctx context.Context, f *models.Field) (*models.Field, error) {
	if err := r.record("fields.Create"); err != nil {
		return nil, err
	}
	f.ID = r.nextID
	r.nextID++
	if f.UUID == "" {
		f.UUID = "field-" + time.Now().Format("150405.000000000")
	}
	now := time.Now()
	f.CreatedAt, f.UpdatedAt = now, now
	copied := *f
	r.created = append(r.created, &copied)
	r.add(&copied)
	return f, nil
}

func (r *fakeFieldsRepo) InsertValue(ctx context.Context, f *models.Field) error {
	if err := r.record("fields.InsertValue"); err != nil {
		return err
	}
	copied := *f
	r.values = append(r.values, &copied)
	return nil
}

func (r *fakeFieldsRepo) GetByUUID(ctx context.Context, owner, uuid string) (*models.Field, error) {
	if err := r.record("fields.GetByUUID"); err != nil {
		return nil, err
	}
	f, ok := r.byUUID[uuid]
	if !ok || f.CreatedBy != owner {
		return nil, commonNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *fakeFieldsRepo) ListByBlockUUID(ctx context.Context, owner, blockUUID string) ([]*models.Field, error) {
	if err := r.record("fields.ListByBlockUUID"); err != nil {
		return nil, err
	}
	var out []*models.Field
	for _, f := range r.byBlock[blockUUID] {
		if f.CreatedBy == owner {
			copied := *f
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeFieldsRepo) UpdateName(ctx context.Context, id int64, name string) error {
	if err := r.record("fields.UpdateName"); err != nil {
		return err
	}
	for _, f := range r.byUUID {
		if f.ID == id {
			f.Name = name
			return nil
		}
	}
	return commonNotFound
}

func (r *fakeFieldsRepo) UpdateValue(ctx context.Context, f *models.Field) error {
	if err := r.record("fields.UpdateValue"); err != nil {
		return err
	}
	stored, ok := r.byUUID[f.UUID]
	if !ok {
		return commonNotFound
	}
	stored.Text = f.Text
	stored.Password = f.Password
	stored.IsChecked = f.IsChecked
	return nil
}

func (r *fakeFieldsRepo) Delete(ctx context.Context, id int64) error {
	if err := r.record("fields.Delete"); err != nil {
		return err
	}
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *fakeFieldsRepo) DeleteValue(ctx context.Context, uuid string, fieldType models.FieldType) error {
	if err := r.record("fields.DeleteValue"); err != nil {
		return err
	}
	r.deletedValues = append(r.deletedValues, uuid)
	return nil
}

func (r *fakeFieldsRepo) DeleteByBlockUUIDs(ctx context.Context, owner string, blockUUIDs []string) error {
	if err := r.record("fields.DeleteByBlockUUIDs"); err != nil {
		return err
	}
	r.cascades = append(r.cascades, blockUUIDs)
	return nil
}

func (r *fakeFieldsRepo) SelectNameMatches(ctx context.Context, owner, substr string) ([]*fields.FieldMatch, error) {
	if err := r.record("fields.SelectNameMatches"); err != nil {
		return nil, err
	}
	return r.matches, nil
}
