package services

import (
	"context"
	"database/sql"
	"fmt"

	"blockvault/internal/common"
	"blockvault/internal/cryptox"
	"blockvault/internal/dbx"
	"blockvault/internal/logging"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/repomanager"
)

// FieldService owns field rows and their typed payload rows. Password
// payloads are encrypted before they reach storage and decrypted on read;
// plaintext only ever lives in per-request memory.
type FieldService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	enc    *cryptox.Encryptor
	logger logging.Logger
}

func NewFieldService(db *sql.DB, repos repomanager.RepositoryManager, enc *cryptox.Encryptor, logger logging.Logger) *FieldService {
	return &FieldService{db: db, repos: repos, enc: enc, logger: logger}
}

// CreateFieldInput carries boundary values for a new field. Exactly the
// payload member matching Type is read.
type CreateFieldInput struct {
	BlockUUID string
	Name      string
	Type      models.FieldType
	Text      string
	Password  string
	IsChecked bool
}

// CreateField attaches a field to a terminal block, writing the field row
// and its satellite payload row atomically.
func (s *FieldService) CreateField(ctx context.Context, owner string, in CreateFieldInput) (*models.Field, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown field type %q", common.ErrorValidation, in.Type)
	}

	block, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, in.BlockUUID)
	if err != nil {
		return nil, storageErr(err)
	}
	if block.Type != models.BlockTypeTerminal {
		return nil, fmt.Errorf("%w: block %s cannot own fields", common.ErrorValidation, block.UUID)
	}

	field := &models.Field{
		Name:      in.Name,
		Type:      in.Type,
		CreatedBy: owner,
		BlockUUID: block.UUID,
		Text:      in.Text,
		IsChecked: in.IsChecked,
	}
	if in.Type == models.FieldTypePassword {
		ciphertext, err := s.enc.Encrypt(in.Password)
		if err != nil {
			return nil, storageErr(err)
		}
		field.Password = ciphertext
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Fields(tx)
		if _, err := repo.Create(ctx, field); err != nil {
			return err
		}
		return repo.InsertValue(ctx, field)
	})
	if err != nil {
		return nil, storageErr(err)
	}

	// Hand back the plaintext the caller sent, not the ciphertext.
	if field.Type == models.FieldTypePassword {
		field.Password = in.Password
	}
	return field, nil
}

// GetField returns the owner's field with its payload decrypted.
func (s *FieldService) GetField(ctx context.Context, owner, uuid string) (*models.Field, error) {
	field, err := s.repos.Fields(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := s.decrypt(field); err != nil {
		return nil, err
	}
	return field, nil
}

// ListFields returns all fields of a block with payloads decrypted. The
// block must exist and belong to the owner.
func (s *FieldService) ListFields(ctx context.Context, owner, blockUUID string) ([]*models.Field, error) {
	if _, err := s.repos.Blocks(s.db).GetByUUID(ctx, owner, blockUUID); err != nil {
		return nil, storageErr(err)
	}
	return s.listForBlock(ctx, owner, blockUUID)
}

// listForBlock lists and decrypts without re-checking the block; the
// search engine uses it for hydration where the block is already in hand.
func (s *FieldService) listForBlock(ctx context.Context, owner, blockUUID string) ([]*models.Field, error) {
	fields, err := s.repos.Fields(s.db).ListByBlockUUID(ctx, owner, blockUUID)
	if err != nil {
		return nil, storageErr(err)
	}
	for _, f := range fields {
		if err := s.decrypt(f); err != nil {
			return nil, err
		}
	}
	if fields == nil {
		fields = []*models.Field{}
	}
	return fields, nil
}

// UpdateFieldInput patches a field. Nil members stay untouched; a payload
// member of the wrong type for the field is a validation error.
type UpdateFieldInput struct {
	Name      *string
	Text      *string
	Password  *string
	IsChecked *bool
}

func (s *FieldService) UpdateField(ctx context.Context, owner, uuid string, in UpdateFieldInput) (*models.Field, error) {
	if in.Name != nil && *in.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", common.ErrorValidation)
	}

	field, err := s.repos.Fields(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return nil, storageErr(err)
	}

	var value *models.Field
	switch {
	case in.Text != nil:
		if field.Type != models.FieldTypeText {
			return nil, fmt.Errorf("%w: field %s holds no text value", common.ErrorValidation, uuid)
		}
		value = &models.Field{UUID: field.UUID, Type: field.Type, Text: *in.Text}
	case in.Password != nil:
		if field.Type != models.FieldTypePassword {
			return nil, fmt.Errorf("%w: field %s holds no password value", common.ErrorValidation, uuid)
		}
		ciphertext, err := s.enc.Encrypt(*in.Password)
		if err != nil {
			return nil, storageErr(err)
		}
		value = &models.Field{UUID: field.UUID, Type: field.Type, Password: ciphertext}
	case in.IsChecked != nil:
		if field.Type != models.FieldTypeTodo {
			return nil, fmt.Errorf("%w: field %s holds no todo value", common.ErrorValidation, uuid)
		}
		value = &models.Field{UUID: field.UUID, Type: field.Type, IsChecked: *in.IsChecked}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Fields(tx)
		if in.Name != nil {
			if err := repo.UpdateName(ctx, field.ID, *in.Name); err != nil {
				return err
			}
		}
		if value != nil {
			return repo.UpdateValue(ctx, value)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}

	return s.GetField(ctx, owner, uuid)
}

// DeleteField removes the field and its satellite row, satellite first.
func (s *FieldService) DeleteField(ctx context.Context, owner, uuid string) error {
	field, err := s.repos.Fields(s.db).GetByUUID(ctx, owner, uuid)
	if err != nil {
		return storageErr(err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Fields(tx)
		if err := repo.DeleteValue(ctx, field.UUID, field.Type); err != nil {
			return err
		}
		return repo.Delete(ctx, field.ID)
	})
	return storageErr(err)
}

func (s *FieldService) decrypt(f *models.Field) error {
	if f.Type != models.FieldTypePassword || f.Password == "" {
		return nil
	}
	plaintext, err := s.enc.Decrypt(f.Password)
	if err != nil {
		return storageErr(fmt.Errorf("decrypting field %s: %w", f.UUID, err))
	}
	f.Password = plaintext
	return nil
}
