package models

import "time"

// FieldType selects which satellite table stores the field's payload.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypePassword FieldType = "password"
	FieldTypeTodo     FieldType = "todo"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	return t == FieldTypeText || t == FieldTypePassword || t == FieldTypeTodo
}

// Field is a typed leaf value owned by a terminal block. Exactly one of the
// payload members is meaningful, fixed by Type: Text, Password (ciphertext
// at rest, plaintext only in per-request memory after decryption) or
// IsChecked.
type Field struct {
	ID        int64
	UUID      string
	Name      string
	Type      FieldType
	CreatedBy string
	BlockUUID string
	CreatedAt time.Time
	UpdatedAt time.Time

	Text      string
	Password  string
	IsChecked bool
}
