package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blockvault/internal/server/models"
	"blockvault/internal/server/services"
)

type createFieldRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Password  string `json:"password"`
	IsChecked bool   `json:"isChecked"`
}

type updateFieldRequest struct {
	Name      *string `json:"name"`
	Text      *string `json:"text"`
	Password  *string `json:"password"`
	IsChecked *bool   `json:"isChecked"`
}

func (s *HTTPServer) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var req createFieldRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	field, err := s.fields.CreateField(r.Context(), userIDFrom(r.Context()), services.CreateFieldInput{
		BlockUUID: chi.URLParam(r, "uuid"),
		Name:      req.Name,
		Type:      models.FieldType(req.Type),
		Text:      req.Text,
		Password:  req.Password,
		IsChecked: req.IsChecked,
	})
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFieldDTO(field))
}

func (s *HTTPServer) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.fields.ListFields(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"))
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFieldDTOs(fields))
}

func (s *HTTPServer) handleGetField(w http.ResponseWriter, r *http.Request) {
	field, err := s.fields.GetField(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"))
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFieldDTO(field))
}

func (s *HTTPServer) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	field, err := s.fields.UpdateField(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"), services.UpdateFieldInput{
		Name:      req.Name,
		Text:      req.Text,
		Password:  req.Password,
		IsChecked: req.IsChecked,
	})
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFieldDTO(field))
}

func (s *HTTPServer) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	if err := s.fields.DeleteField(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid")); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
