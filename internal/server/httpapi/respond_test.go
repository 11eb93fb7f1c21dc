package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockvault/internal/common"
	"blockvault/internal/logging"
)

func TestRespondError_StatusMapping(t *testing.T) {
	logger := logging.Discard()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("%w: name is required", common.ErrorValidation),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"validation error: name is required"}`,
		},
		{
			name:       "not found hides detail",
			err:        fmt.Errorf("block abc: %w", common.ErrorNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"not found"}`,
		},
		{
			name:       "conflict",
			err:        fmt.Errorf("%w: login already taken", common.ErrorConflict),
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"conflict: login already taken"}`,
		},
		{
			name:       "unauthorized",
			err:        common.ErrorUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"unauthorized"}`,
		},
		{
			name:       "expired refresh token",
			err:        common.ErrRefreshTokenExpired,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"unauthorized"}`,
		},
		{
			name:       "storage failure stays opaque",
			err:        fmt.Errorf("%w: %w", common.ErrorStorage, errors.New("connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(context.Background(), rec, logger, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestDecodeBody(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"docs"}`))
	require.NoError(t, decodeBody(req, &v))
	assert.Equal(t, "docs", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	err := decodeBody(req, &v)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)
}
