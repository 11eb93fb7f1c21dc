// Package blocks provides the PostgreSQL-backed repository for the
// materialized-path block tree.
package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blockvault/internal/common"
	"blockvault/internal/dbx"
	"blockvault/internal/server/models"
)

const blockColumns = `id, uuid, name, description, path, block_type, created_by, parent_id, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanBlock(row interface{ Scan(...any) error }) (*models.Block, error) {
	b := &models.Block{}
	var description sql.NullString
	var parentID sql.NullInt64
	err := row.Scan(&b.ID, &b.UUID, &b.Name, &description, &b.Path, &b.Type,
		&b.CreatedBy, &parentID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Description = description.String
	if parentID.Valid {
		b.ParentID = &parentID.Int64
	}
	return b, nil
}

func collectBlocks(rows *sql.Rows) ([]*models.Block, error) {
	defer rows.Close()
	var result []*models.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a block with its final path already computed from the
// parent, so no reader ever observes a row whose path does not reflect its
// ancestry. The storage-assigned id, uuid and timestamps are read back.
func (r *PostgresRepository) Create(ctx context.Context, b *models.Block) (*models.Block, error) {
	query := `
		INSERT INTO blocks (name, description, path, block_type, created_by, parent_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING id, uuid, created_at, updated_at
	`
	var parentID sql.NullInt64
	if b.ParentID != nil {
		parentID = sql.NullInt64{Int64: *b.ParentID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		b.Name, b.Description, b.Path, b.Type, b.CreatedBy, parentID).
		Scan(&b.ID, &b.UUID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// GetByUUID returns the owner's block with the given uuid, or
// common.ErrorNotFound. Rows owned by other users are invisible here.
func (r *PostgresRepository) GetByUUID(ctx context.Context, owner, uuid string) (*models.Block, error) {
	query := `
		SELECT ` + blockColumns + ` FROM blocks
		WHERE created_by = $1 AND uuid = $2
	`
	b, err := scanBlock(r.db.QueryRowContext(ctx, query, owner, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// GetByIDs fetches the owner's blocks with the given internal ids, in no
// particular order. Missing ids are silently absent from the result.
func (r *PostgresRepository) GetByIDs(ctx context.Context, owner string, ids []int64) ([]*models.Block, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + blockColumns + ` FROM blocks
		WHERE created_by = $1 AND id IN (` + dbx.Placeholders(len(ids), 2) + `)
	`
	args := make([]any, 0, len(ids)+1)
	args = append(args, owner)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	result, err := collectBlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// ListChildren returns one keyset page of rows whose path equals exactly
// q.ParentPath. The caller asks for one row more than the page size to
// detect whether a next page exists.
func (r *PostgresRepository) ListChildren(ctx context.Context, q ChildrenQuery) ([]*models.Block, error) {
	if !q.SortBy.Valid() || !q.Dir.Valid() {
		return nil, fmt.Errorf("%w: invalid sort %q %q", common.ErrorValidation, q.SortBy, q.Dir)
	}

	args := []any{q.Owner, q.ParentPath}
	where := `created_by = $1 AND path = $2`
	if q.Cursor != nil {
		op := ">"
		if q.Dir == SortDesc {
			op = "<"
		}
		args = append(args, q.Cursor)
		where += fmt.Sprintf(` AND %s %s $3`, q.SortBy, op)
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT `+blockColumns+` FROM blocks
		WHERE %s
		ORDER BY %s %s, id %s
		LIMIT $%d
	`, where, q.SortBy, q.Dir, q.Dir, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	result, err := collectBlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// CountChildren returns the total number of direct children, independent of
// the current page.
func (r *PostgresRepository) CountChildren(ctx context.Context, owner, parentPath string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM blocks
		WHERE created_by = $1 AND path = $2
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, owner, parentPath).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Update patches name and/or description; nil arguments leave the column
// untouched. Path, type and parent are never modified here.
func (r *PostgresRepository) Update(ctx context.Context, id int64, name, description *string) error {
	query := `
		UPDATE blocks
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, name, description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// UpdatePlacement rewrites the path and parent of the block being moved.
func (r *PostgresRepository) UpdatePlacement(ctx context.Context, id int64, path string, parentID *int64) error {
	query := `
		UPDATE blocks
		SET path = $2, parent_id = $3, updated_at = now()
		WHERE id = $1
	`
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, id, path, parent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// UpdatePath rewrites a single descendant path during a subtree repaint.
func (r *PostgresRepository) UpdatePath(ctx context.Context, id int64, path string) error {
	query := `
		UPDATE blocks
		SET path = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, path)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// SelectSubtree returns every descendant row, i.e. rows whose path starts
// with prefix, ordered by path so ancestors come before their children.
// The subtree root itself carries a shorter path and is not included.
func (r *PostgresRepository) SelectSubtree(ctx context.Context, owner, prefix string) ([]*models.Block, error) {
	query := `
		SELECT ` + blockColumns + ` FROM blocks
		WHERE created_by = $1 AND path LIKE $2 || '%'
		ORDER BY path, id
	`
	rows, err := r.db.QueryContext(ctx, query, owner, prefix)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	result, err := collectBlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// DeleteSubtree removes the block with the given id together with every row
// whose path starts with prefix, returning the number of rows deleted.
func (r *PostgresRepository) DeleteSubtree(ctx context.Context, owner string, id int64, prefix string) (int64, error) {
	query := `
		DELETE FROM blocks
		WHERE created_by = $1 AND (id = $2 OR path LIKE $3 || '%')
	`
	res, err := r.db.ExecContext(ctx, query, owner, id, prefix)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// SelectMatching returns the owner's blocks whose name or description
// contains substr, optionally restricted to one block type. Results come
// newest-updated first; ranking happens in the search service.
func (r *PostgresRepository) SelectMatching(ctx context.Context, owner, substr string, blockType models.BlockType) ([]*models.Block, error) {
	pattern := dbx.LikeContains(substr)
	query := `
		SELECT ` + blockColumns + ` FROM blocks
		WHERE created_by = $1
		  AND (name LIKE $2 ESCAPE '\' OR description LIKE $2 ESCAPE '\')
	`
	args := []any{owner, pattern}
	if blockType != "" {
		args = append(args, blockType)
		query += ` AND block_type = $3`
	}
	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	result, err := collectBlocks(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
