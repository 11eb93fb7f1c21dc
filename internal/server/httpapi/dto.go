package httpapi

import (
	"time"

	"blockvault/internal/server/models"
	"blockvault/internal/server/services"
)

// Response DTOs. These deliberately carry only the client-facing identity of
// each row; internal numeric ids and materialized paths never leave the
// server.

type blockDTO struct {
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toBlockDTO(b *models.Block) blockDTO {
	return blockDTO{
		UUID:        b.UUID,
		Name:        b.Name,
		Description: b.Description,
		Type:        string(b.Type),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type fieldDTO struct {
	UUID      string    `json:"uuid"`
	BlockUUID string    `json:"blockUuid"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Password  string    `json:"password,omitempty"`
	IsChecked *bool     `json:"isChecked,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toFieldDTO(f *models.Field) fieldDTO {
	dto := fieldDTO{
		UUID:      f.UUID,
		BlockUUID: f.BlockUUID,
		Name:      f.Name,
		Type:      string(f.Type),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	switch f.Type {
	case models.FieldTypeText:
		dto.Text = f.Text
	case models.FieldTypePassword:
		dto.Password = f.Password
	case models.FieldTypeTodo:
		checked := f.IsChecked
		dto.IsChecked = &checked
	}
	return dto
}

func toFieldDTOs(fields []*models.Field) []fieldDTO {
	dtos := make([]fieldDTO, 0, len(fields))
	for _, f := range fields {
		dtos = append(dtos, toFieldDTO(f))
	}
	return dtos
}

type crumbDTO struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func toCrumbDTOs(crumbs []models.Crumb) []crumbDTO {
	dtos := make([]crumbDTO, 0, len(crumbs))
	for _, c := range crumbs {
		dtos = append(dtos, crumbDTO{UUID: c.UUID, Name: c.Name})
	}
	return dtos
}

type childrenPageDTO struct {
	Items      []blockDTO `json:"items"`
	Total      int64      `json:"total"`
	HasNext    bool       `json:"hasNext"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func toChildrenPageDTO(page *services.ChildrenPage) childrenPageDTO {
	items := make([]blockDTO, 0, len(page.Items))
	for _, b := range page.Items {
		items = append(items, toBlockDTO(b))
	}
	return childrenPageDTO{
		Items:      items,
		Total:      page.Total,
		HasNext:    page.HasNext,
		NextCursor: page.NextCursor,
	}
}

type searchResultDTO struct {
	Block        blockDTO   `json:"block"`
	MatchType    string     `json:"matchType"`
	MatchedField *fieldDTO  `json:"matchedField,omitempty"`
	Breadcrumbs  []crumbDTO `json:"breadcrumbs"`
	RelativePath string     `json:"relativePath"`
	Fields       []fieldDTO `json:"fields"`
}

type searchPageDTO struct {
	Results    []searchResultDTO `json:"results"`
	Total      int64             `json:"total"`
	HasNext    bool              `json:"hasNext"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func toSearchPageDTO(page *services.SearchPage) searchPageDTO {
	results := make([]searchResultDTO, 0, len(page.Results))
	for _, r := range page.Results {
		dto := searchResultDTO{
			Block:        toBlockDTO(r.Block),
			MatchType:    string(r.MatchType),
			Breadcrumbs:  toCrumbDTOs(r.Breadcrumbs),
			RelativePath: r.RelativePath,
			Fields:       toFieldDTOs(r.Fields),
		}
		if r.MatchedField != nil {
			mf := toFieldDTO(r.MatchedField)
			dto.MatchedField = &mf
		}
		results = append(results, dto)
	}
	return searchPageDTO{
		Results:    results,
		Total:      page.Total,
		HasNext:    page.HasNext,
		NextCursor: page.NextCursor,
	}
}
