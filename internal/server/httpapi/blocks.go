package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"blockvault/internal/common"
	"blockvault/internal/server/models"
	"blockvault/internal/server/services"
)

type createBlockRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentUUID  *string `json:"parentUuid"`
	Type        string  `json:"type"`
}

type updateBlockRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type moveBlockRequest struct {
	ParentUUID *string `json:"parentUuid"`
}

func (s *HTTPServer) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var req createBlockRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	block, err := s.blocks.CreateBlock(r.Context(), userIDFrom(r.Context()), services.CreateBlockInput{
		Name:        req.Name,
		Description: req.Description,
		ParentUUID:  req.ParentUUID,
		Type:        models.BlockType(req.Type),
	})
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBlockDTO(block))
}

func (s *HTTPServer) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	block, err := s.blocks.GetBlock(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"))
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlockDTO(block))
}

func (s *HTTPServer) handleListChildren(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := services.ListChildrenQuery{
		Cursor:  params.Get("cursor"),
		SortBy:  params.Get("sortBy"),
		SortDir: params.Get("sortDir"),
	}
	if parent := params.Get("parent"); parent != "" {
		q.ParentUUID = &parent
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(r.Context(), w, s.logger,
				fmt.Errorf("%w: limit must be an integer", common.ErrorValidation))
			return
		}
		q.Limit = limit
	}

	page, err := s.blocks.ListChildren(r.Context(), userIDFrom(r.Context()), q)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildrenPageDTO(page))
}

func (s *HTTPServer) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req updateBlockRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	block, err := s.blocks.UpdateBlock(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"), req.Name, req.Description)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlockDTO(block))
}

func (s *HTTPServer) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	var req moveBlockRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	block, err := s.blocks.MoveBlock(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"), req.ParentUUID)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBlockDTO(block))
}

func (s *HTTPServer) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.blocks.DeleteBlock(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid")); err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	crumbs, err := s.blocks.Breadcrumbs(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "uuid"))
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toCrumbDTOs(crumbs))
}
