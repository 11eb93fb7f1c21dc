// Package fields provides the PostgreSQL-backed repository for typed fields
// and their one-of-three satellite payload rows.
package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blockvault/internal/common"
	"blockvault/internal/dbx"
	"blockvault/internal/server/models"
)

const fieldColumns = `f.id, f.uuid, f.name, f.field_type, f.created_by, f.block_uuid, f.created_at, f.updated_at`

const payloadJoins = `
		LEFT JOIN field_text t ON t.field_uuid = f.uuid
		LEFT JOIN field_password p ON p.field_uuid = f.uuid
		LEFT JOIN field_todo td ON td.field_uuid = f.uuid`

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanField(row interface{ Scan(...any) error }) (*models.Field, error) {
	f := &models.Field{}
	var text, password sql.NullString
	var isChecked sql.NullBool
	err := row.Scan(&f.ID, &f.UUID, &f.Name, &f.Type, &f.CreatedBy, &f.BlockUUID,
		&f.CreatedAt, &f.UpdatedAt, &text, &password, &isChecked)
	if err != nil {
		return nil, err
	}
	f.Text = text.String
	f.Password = password.String
	f.IsChecked = isChecked.Bool
	return f, nil
}

// Create inserts the field row itself. The satellite payload row is written
// separately with InsertValue; the service wraps both in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, f *models.Field) (*models.Field, error) {
	query := `
		INSERT INTO fields (name, field_type, created_by, block_uuid)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uuid, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, f.Name, f.Type, f.CreatedBy, f.BlockUUID).
		Scan(&f.ID, &f.UUID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// InsertValue writes the satellite row selected by the field's type.
func (r *PostgresRepository) InsertValue(ctx context.Context, f *models.Field) error {
	var query string
	var value any
	switch f.Type {
	case models.FieldTypeText:
		query = `INSERT INTO field_text (field_uuid, text) VALUES ($1, $2)`
		value = f.Text
	case models.FieldTypePassword:
		query = `INSERT INTO field_password (field_uuid, password) VALUES ($1, $2)`
		value = f.Password
	case models.FieldTypeTodo:
		query = `INSERT INTO field_todo (field_uuid, is_checked) VALUES ($1, $2)`
		value = f.IsChecked
	default:
		return fmt.Errorf("%w: unknown field type %q", common.ErrorValidation, f.Type)
	}
	if _, err := r.db.ExecContext(ctx, query, f.UUID, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByUUID returns the owner's field with its payload, or common.ErrorNotFound.
func (r *PostgresRepository) GetByUUID(ctx context.Context, owner, uuid string) (*models.Field, error) {
	query := `
		SELECT ` + fieldColumns + `, t.text, p.password, td.is_checked
		FROM fields f` + payloadJoins + `
		WHERE f.created_by = $1 AND f.uuid = $2
	`
	f, err := scanField(r.db.QueryRowContext(ctx, query, owner, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// ListByBlockUUID returns all fields of one block with payloads, oldest first.
func (r *PostgresRepository) ListByBlockUUID(ctx context.Context, owner, blockUUID string) ([]*models.Field, error) {
	query := `
		SELECT ` + fieldColumns + `, t.text, p.password, td.is_checked
		FROM fields f` + payloadJoins + `
		WHERE f.created_by = $1 AND f.block_uuid = $2
		ORDER BY f.created_at, f.id
	`
	rows, err := r.db.QueryContext(ctx, query, owner, blockUUID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateName renames a field.
func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `
		UPDATE fields
		SET name = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// UpdateValue rewrites the satellite payload and touches the field's
// updated_at.
func (r *PostgresRepository) UpdateValue(ctx context.Context, f *models.Field) error {
	var query string
	var value any
	switch f.Type {
	case models.FieldTypeText:
		query = `UPDATE field_text SET text = $2 WHERE field_uuid = $1`
		value = f.Text
	case models.FieldTypePassword:
		query = `UPDATE field_password SET password = $2 WHERE field_uuid = $1`
		value = f.Password
	case models.FieldTypeTodo:
		query = `UPDATE field_todo SET is_checked = $2 WHERE field_uuid = $1`
		value = f.IsChecked
	default:
		return fmt.Errorf("%w: unknown field type %q", common.ErrorValidation, f.Type)
	}
	res, err := r.db.ExecContext(ctx, query, f.UUID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE fields SET updated_at = now() WHERE uuid = $1`, f.UUID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the field row. The satellite row must be removed first
// (DeleteValue) given the foreign-key direction.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// DeleteValue removes the satellite row of the field with the given uuid.
func (r *PostgresRepository) DeleteValue(ctx context.Context, uuid string, fieldType models.FieldType) error {
	var query string
	switch fieldType {
	case models.FieldTypeText:
		query = `DELETE FROM field_text WHERE field_uuid = $1`
	case models.FieldTypePassword:
		query = `DELETE FROM field_password WHERE field_uuid = $1`
	case models.FieldTypeTodo:
		query = `DELETE FROM field_todo WHERE field_uuid = $1`
	default:
		return fmt.Errorf("%w: unknown field type %q", common.ErrorValidation, fieldType)
	}
	if _, err := r.db.ExecContext(ctx, query, uuid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByBlockUUIDs removes all fields owned by the given blocks, satellite
// rows first. Used by the cascade delete of a subtree; the caller supplies
// the uuids of every block in the subtree and wraps the call in the same
// transaction that deletes the block rows.
func (r *PostgresRepository) DeleteByBlockUUIDs(ctx context.Context, owner string, blockUUIDs []string) error {
	if len(blockUUIDs) == 0 {
		return nil
	}
	in := dbx.Placeholders(len(blockUUIDs), 2)
	args := make([]any, 0, len(blockUUIDs)+1)
	args = append(args, owner)
	for _, u := range blockUUIDs {
		args = append(args, u)
	}

	satellites := []string{
		`DELETE FROM field_text WHERE field_uuid IN
			(SELECT uuid FROM fields WHERE created_by = $1 AND block_uuid IN (` + in + `))`,
		`DELETE FROM field_password WHERE field_uuid IN
			(SELECT uuid FROM fields WHERE created_by = $1 AND block_uuid IN (` + in + `))`,
		`DELETE FROM field_todo WHERE field_uuid IN
			(SELECT uuid FROM fields WHERE created_by = $1 AND block_uuid IN (` + in + `))`,
		`DELETE FROM fields WHERE created_by = $1 AND block_uuid IN (` + in + `)`,
	}
	for _, query := range satellites {
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// SelectNameMatches returns the owner's fields whose name contains substr,
// restricted to fields owned by terminal blocks, each joined to its block.
func (r *PostgresRepository) SelectNameMatches(ctx context.Context, owner, substr string) ([]*FieldMatch, error) {
	query := `
		SELECT ` + fieldColumns + `,
		       b.id, b.uuid, b.name, b.description, b.path, b.block_type, b.created_by, b.parent_id, b.created_at, b.updated_at
		FROM fields f
		JOIN blocks b ON b.uuid = f.block_uuid AND b.block_type = 'terminal'
		WHERE f.created_by = $1 AND f.name LIKE $2 ESCAPE '\'
		ORDER BY f.updated_at DESC, f.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, owner, dbx.LikeContains(substr))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*FieldMatch
	for rows.Next() {
		m := &FieldMatch{}
		var description sql.NullString
		var parentID sql.NullInt64
		err := rows.Scan(
			&m.Field.ID, &m.Field.UUID, &m.Field.Name, &m.Field.Type, &m.Field.CreatedBy,
			&m.Field.BlockUUID, &m.Field.CreatedAt, &m.Field.UpdatedAt,
			&m.Block.ID, &m.Block.UUID, &m.Block.Name, &description, &m.Block.Path,
			&m.Block.Type, &m.Block.CreatedBy, &parentID, &m.Block.CreatedAt, &m.Block.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Block.Description = description.String
		if parentID.Valid {
			m.Block.ParentID = &parentID.Int64
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
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
