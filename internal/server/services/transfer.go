package services

import (
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"blockvault/internal/common"
	"blockvault/internal/cryptox"
	"blockvault/internal/dbx"
	"blockvault/internal/logging"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/repomanager"
	"blockvault/internal/treepath"
)

// archiveVersion guards against future format changes.
const archiveVersion = 1

// Archive is the gzip-packaged JSON snapshot format of a user's tree.
// Blocks appear ancestors-first; ParentUUID refers to another block inside
// the archive, or is empty for archive roots. Password values are stored
// decrypted in the archive; the caller is responsible for keeping it safe.
type Archive struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Blocks     []ArchiveBlock `json:"blocks"`
}

type ArchiveBlock struct {
	UUID        string           `json:"uuid"`
	ParentUUID  string           `json:"parentUuid,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Type        models.BlockType `json:"type"`
	Fields      []ArchiveField   `json:"fields,omitempty"`
}

type ArchiveField struct {
	Name      string           `json:"name"`
	Type      models.FieldType `json:"type"`
	Text      string           `json:"text,omitempty"`
	Password  string           `json:"password,omitempty"`
	IsChecked bool             `json:"isChecked,omitempty"`
}

// TransferService packages a user's tree into a gzip JSON archive and
// restores such archives transactionally.
type TransferService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	enc    *cryptox.Encryptor
	logger logging.Logger
}

func NewTransferService(db *sql.DB, repos repomanager.RepositoryManager, enc *cryptox.Encryptor, logger logging.Logger) *TransferService {
	return &TransferService{db: db, repos: repos, enc: enc, logger: logger}
}

// Export writes the gzip-compressed archive of the subtree rooted at
// rootUUID (or the user's entire tree when nil) to w.
func (s *TransferService) Export(ctx context.Context, owner string, rootUUID *string, w io.Writer) error {
	blockRepo := s.repos.Blocks(s.db)

	var list []*models.Block
	if rootUUID != nil {
		root, err := blockRepo.GetByUUID(ctx, owner, *rootUUID)
		if err != nil {
			return storageErr(err)
		}
		subtree, err := blockRepo.SelectSubtree(ctx, owner, treepath.SubtreePrefix(root.Path, root.ID))
		if err != nil {
			return storageErr(err)
		}
		list = append([]*models.Block{root}, subtree...)
	} else {
		// Every path starts with "/", so the root prefix selects the whole tree.
		all, err := blockRepo.SelectSubtree(ctx, owner, treepath.Root)
		if err != nil {
			return storageErr(err)
		}
		list = all
	}

	uuidByID := make(map[int64]string, len(list))
	for _, b := range list {
		uuidByID[b.ID] = b.UUID
	}

	archive := Archive{Version: archiveVersion, ExportedAt: time.Now().UTC()}
	for _, b := range list {
		entry := ArchiveBlock{
			UUID:        b.UUID,
			Name:        b.Name,
			Description: b.Description,
			Type:        b.Type,
		}
		if b.ParentID != nil {
			// Parents outside the exported subtree make this block an
			// archive root.
			entry.ParentUUID = uuidByID[*b.ParentID]
		}

		if b.Type == models.BlockTypeTerminal {
			fieldList, err := s.repos.Fields(s.db).ListByBlockUUID(ctx, owner, b.UUID)
			if err != nil {
				return storageErr(err)
			}
			for _, f := range fieldList {
				af := ArchiveField{Name: f.Name, Type: f.Type, Text: f.Text, IsChecked: f.IsChecked}
				if f.Type == models.FieldTypePassword {
					plaintext, err := s.enc.Decrypt(f.Password)
					if err != nil {
						return storageErr(fmt.Errorf("decrypting field %s: %w", f.UUID, err))
					}
					af.Password = plaintext
				}
				entry.Fields = append(entry.Fields, af)
			}
		}

		archive.Blocks = append(archive.Blocks, entry)
	}

	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(archive); err != nil {
		_ = gz.Close()
		return storageErr(err)
	}
	if err := gz.Close(); err != nil {
		return storageErr(err)
	}

	s.logger.Info(ctx, "tree exported", "blocks", len(archive.Blocks))
	return nil
}

// Import restores an archive under the user's root level inside one
// transaction; a malformed archive leaves the tree untouched. Returns the
// number of blocks and fields created.
func (s *TransferService) Import(ctx context.Context, owner string, r io.Reader) (int, int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: not a gzip archive", common.ErrorValidation)
	}
	defer gz.Close()

	var archive Archive
	if err := json.NewDecoder(gz).Decode(&archive); err != nil {
		return 0, 0, fmt.Errorf("%w: malformed archive", common.ErrorValidation)
	}
	if archive.Version != archiveVersion {
		return 0, 0, fmt.Errorf("%w: unsupported archive version %d", common.ErrorValidation, archive.Version)
	}

	var blocksCreated, fieldsCreated int
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		blockRepo := s.repos.Blocks(tx)
		fieldRepo := s.repos.Fields(tx)

		createdByArchiveUUID := make(map[string]*models.Block, len(archive.Blocks))

		for _, ab := range archive.Blocks {
			if ab.Name == "" || !ab.Type.Valid() {
				return fmt.Errorf("%w: malformed archive block %q", common.ErrorValidation, ab.UUID)
			}

			block := &models.Block{
				Name:        ab.Name,
				Description: ab.Description,
				Path:        treepath.Root,
				Type:        ab.Type,
				CreatedBy:   owner,
			}
			if ab.ParentUUID != "" {
				parent, ok := createdByArchiveUUID[ab.ParentUUID]
				if !ok {
					return fmt.Errorf("%w: block %q references unknown parent %q", common.ErrorValidation, ab.UUID, ab.ParentUUID)
				}
				if parent.Type != models.BlockTypeContainer {
					return fmt.Errorf("%w: block %q cannot contain children", common.ErrorValidation, ab.ParentUUID)
				}
				block.Path = treepath.ChildPath(parent.Path, parent.ID)
				block.ParentID = &parent.ID
			}

			created, err := blockRepo.Create(ctx, block)
			if err != nil {
				return err
			}
			createdByArchiveUUID[ab.UUID] = created
			blocksCreated++

			if len(ab.Fields) > 0 && ab.Type != models.BlockTypeTerminal {
				return fmt.Errorf("%w: container block %q cannot own fields", common.ErrorValidation, ab.UUID)
			}
			for _, af := range ab.Fields {
				if af.Name == "" || !af.Type.Valid() {
					return fmt.Errorf("%w: malformed archive field in block %q", common.ErrorValidation, ab.UUID)
				}
				field := &models.Field{
					Name:      af.Name,
					Type:      af.Type,
					CreatedBy: owner,
					BlockUUID: created.UUID,
					Text:      af.Text,
					IsChecked: af.IsChecked,
				}
				if af.Type == models.FieldTypePassword {
					ciphertext, err := s.enc.Encrypt(af.Password)
					if err != nil {
						return err
					}
					field.Password = ciphertext
				}
				if _, err := fieldRepo.Create(ctx, field); err != nil {
					return err
				}
				if err := fieldRepo.InsertValue(ctx, field); err != nil {
					return err
				}
				fieldsCreated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, storageErr(err)
	}

	s.logger.Info(ctx, "archive imported", "blocks", blocksCreated, "fields", fieldsCreated)
	return blocksCreated, fieldsCreated, nil
}
