package models

import "time"

// BlockType distinguishes tree nodes that hold children from nodes that
// hold fields.
type BlockType string

const (
	// BlockTypeContainer blocks may have children but never own fields.
	BlockTypeContainer BlockType = "container"
	// BlockTypeTerminal blocks may own fields but never have children.
	BlockTypeTerminal BlockType = "terminal"
)

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	return t == BlockTypeContainer || t == BlockTypeTerminal
}

// Block is a node of the materialized-path tree. ID is the storage-assigned
// internal id used inside paths; UUID is the client-facing identity and the
// only id that may appear in API responses.
type Block struct {
	ID          int64
	UUID        string
	Name        string
	Description string
	Path        string
	Type        BlockType
	CreatedBy   string
	ParentID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Crumb is one entry of a block's ancestor chain, root first.
type Crumb struct {
	ID   int64
	UUID string
	Name string
}
