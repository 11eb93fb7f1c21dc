package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"blockvault/internal/common"
	"blockvault/internal/server/services"
)

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := services.SearchQuery{
		Query:     params.Get("q"),
		BlockType: params.Get("type"),
		Cursor:    params.Get("cursor"),
		SortBy:    params.Get("sortBy"),
		SortDir:   params.Get("sortDir"),
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

	page, err := s.search.Search(r.Context(), userIDFrom(r.Context()), q)
	if err != nil {
		respondError(r.Context(), w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSearchPageDTO(page))
}
