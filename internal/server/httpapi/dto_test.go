package httpapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockvault/internal/server/models"
)

func TestToFieldDTO_PayloadPerType(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	text := &models.Field{UUID: "f1", BlockUUID: "b1", Name: "notes", Type: models.FieldTypeText,
		Text: "hello", Password: "leak", IsChecked: true, CreatedAt: now, UpdatedAt: now}
	pwd := &models.Field{UUID: "f2", BlockUUID: "b1", Name: "pin", Type: models.FieldTypePassword,
		Password: "1234", CreatedAt: now, UpdatedAt: now}
	todo := &models.Field{UUID: "f3", BlockUUID: "b1", Name: "done", Type: models.FieldTypeTodo,
		IsChecked: false, CreatedAt: now, UpdatedAt: now}

	b, err := json.Marshal(toFieldDTO(text))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"f1","blockUuid":"b1","name":"notes","type":"text","text":"hello",
		"createdAt":"2025-06-01T12:00:00Z","updatedAt":"2025-06-01T12:00:00Z"}`, string(b))

	b, err = json.Marshal(toFieldDTO(pwd))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"f2","blockUuid":"b1","name":"pin","type":"password","password":"1234",
		"createdAt":"2025-06-01T12:00:00Z","updatedAt":"2025-06-01T12:00:00Z"}`, string(b))

	// an unchecked todo still serializes its flag
	b, err = json.Marshal(toFieldDTO(todo))
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"f3","blockUuid":"b1","name":"done","type":"todo","isChecked":false,
		"createdAt":"2025-06-01T12:00:00Z","updatedAt":"2025-06-01T12:00:00Z"}`, string(b))
}

func TestToBlockDTO_HidesInternals(t *testing.T) {
	parentID := int64(4)
	block := &models.Block{
		ID:        7,
		UUID:      "b7",
		Name:      "bank",
		Path:      "/4/",
		Type:      models.BlockTypeTerminal,
		CreatedBy: "user-1",
		ParentID:  &parentID,
	}

	b, err := json.Marshal(toBlockDTO(block))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "path")
	assert.NotContains(t, m, "createdBy")
	assert.Equal(t, "b7", m["uuid"])
}
