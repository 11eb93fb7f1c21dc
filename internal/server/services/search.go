package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"blockvault/internal/common"
	"blockvault/internal/logging"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/fields"
	"blockvault/internal/server/repositories/repomanager"
)

// MatchType says which part of a block (or its fields) contained the query.
type MatchType string

const (
	MatchBlockName        MatchType = "block_name"
	MatchFieldName        MatchType = "field_name"
	MatchBlockDescription MatchType = "block_description"
)

// matchPriority orders result groups for the relevance sort: name matches
// first, then field matches, then description matches.
func matchPriority(t MatchType) int {
	switch t {
	case MatchBlockName:
		return 1
	case MatchFieldName:
		return 2
	default:
		return 3
	}
}

// SearchQuery is the boundary input of one search request.
type SearchQuery struct {
	Query     string
	BlockType string // "container", "terminal" or "all"
	Limit     int
	Cursor    string
	SortBy    string // "relevance" (default), "name", "createdAt", "updatedAt"
	SortDir   string
}

// SearchResult is one merged entry: the matched block, how it matched, its
// location in the tree, and (for terminal blocks) its full field list.
type SearchResult struct {
	Block        *models.Block
	MatchType    MatchType
	MatchedField *models.Field
	Breadcrumbs  []models.Crumb
	RelativePath string
	Fields       []*models.Field
}

// SearchPage is one offset page of the merged result list. Total is the raw
// match count before fusion: a block matching both by name and by field is
// counted twice there, by contract.
type SearchPage struct {
	Results    []*SearchResult
	Total      int64
	HasNext    bool
	NextCursor string
}

// hydrationWorkers bounds the concurrent per-block field lookups.
const hydrationWorkers = 8

// SearchService fuses block-level and field-level matches into one ranked,
// paginated list.
type SearchService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	resolver *BreadcrumbResolver
	fieldSvc *FieldService
	logger   logging.Logger
}

func NewSearchService(db *sql.DB, repos repomanager.RepositoryManager, resolver *BreadcrumbResolver, fieldSvc *FieldService, logger logging.Logger) *SearchService {
	return &SearchService{db: db, repos: repos, resolver: resolver, fieldSvc: fieldSvc, logger: logger}
}

// parseOffset decodes the offset cursor; external callers treat it as opaque.
func parseOffset(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: malformed cursor", common.ErrorValidation)
	}
	return offset, nil
}

func blockTypeFilter(s string) (models.BlockType, error) {
	switch s {
	case "", "all":
		return "", nil
	case string(models.BlockTypeContainer):
		return models.BlockTypeContainer, nil
	case string(models.BlockTypeTerminal):
		return models.BlockTypeTerminal, nil
	default:
		return "", fmt.Errorf("%w: unknown block type filter %q", common.ErrorValidation, s)
	}
}

// Search runs the block-level and field-level queries concurrently, merges
// them by block uuid with block-level matches taking precedence, resolves
// breadcrumbs and terminal field lists, ranks and paginates.
func (s *SearchService) Search(ctx context.Context, owner string, q SearchQuery) (*SearchPage, error) {
	if q.Query == "" {
		return nil, fmt.Errorf("%w: query is required", common.ErrorValidation)
	}
	typeFilter, err := blockTypeFilter(q.BlockType)
	if err != nil {
		return nil, err
	}
	offset, err := parseOffset(q.Cursor)
	if err != nil {
		return nil, err
	}
	switch q.SortBy {
	case "", "relevance", "name", "createdAt", "updatedAt":
	default:
		return nil, fmt.Errorf("%w: unknown sort column %q", common.ErrorValidation, q.SortBy)
	}
	limit := clampLimit(q.Limit)

	// Fan out the two independent match queries; either failing fails the
	// whole search.
	var blockMatches []*models.Block
	var fieldMatches []*fields.FieldMatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blockMatches, err = s.repos.Blocks(s.db).SelectMatching(gctx, owner, q.Query, typeFilter)
		return err
	})
	g.Go(func() error {
		var err error
		fieldMatches, err = s.repos.Fields(s.db).SelectNameMatches(gctx, owner, q.Query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storageErr(err)
	}

	// Field matches honour the type filter too; the SQL restricts them to
	// terminal blocks already, so a container-only search drops them all.
	if typeFilter == models.BlockTypeContainer {
		fieldMatches = nil
	}

	merged := s.merge(q.Query, blockMatches, fieldMatches)

	if err := s.decorate(ctx, owner, merged); err != nil {
		return nil, err
	}

	s.rank(merged, q.SortBy, q.SortDir)

	page := &SearchPage{
		// Raw pre-fusion count, not len(merged): documented surface quirk.
		Total: int64(len(blockMatches) + len(fieldMatches)),
	}
	end := offset + limit
	page.HasNext = len(merged) > end
	if offset >= len(merged) {
		page.Results = []*SearchResult{}
		return page, nil
	}
	if end > len(merged) {
		end = len(merged)
	}
	page.Results = merged[offset:end]
	if page.HasNext {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

// merge builds the uuid-keyed fusion of both match sets. Block-level
// entries are inserted first; a field match whose block already has a
// block-level entry is dropped, so block relevance always wins. At most one
// entry per block uuid survives.
func (s *SearchService) merge(query string, blockMatches []*models.Block, fieldMatches []*fields.FieldMatch) []*SearchResult {
	seen := make(map[string]*SearchResult, len(blockMatches)+len(fieldMatches))
	merged := make([]*SearchResult, 0, len(blockMatches)+len(fieldMatches))

	for _, b := range blockMatches {
		if _, ok := seen[b.UUID]; ok {
			continue
		}
		// Decide which column actually contained the query; the name wins
		// when both do.
		matchType := MatchBlockDescription
		if strings.Contains(b.Name, query) {
			matchType = MatchBlockName
		}
		r := &SearchResult{Block: b, MatchType: matchType}
		seen[b.UUID] = r
		merged = append(merged, r)
	}

	for _, m := range fieldMatches {
		if _, ok := seen[m.Block.UUID]; ok {
			continue
		}
		block := m.Block
		field := m.Field
		r := &SearchResult{Block: &block, MatchType: MatchFieldName, MatchedField: &field}
		seen[block.UUID] = r
		merged = append(merged, r)
	}

	return merged
}

// decorate resolves breadcrumbs and relative paths for every result and
// hydrates field lists for terminal blocks. Hydration failures degrade the
// individual result to an empty field list instead of failing the search.
func (s *SearchService) decorate(ctx context.Context, owner string, merged []*SearchResult) error {
	for _, r := range merged {
		crumbs, err := s.resolver.Resolve(ctx, owner, r.Block)
		if err != nil {
			return err
		}
		r.Breadcrumbs = crumbs

		names := make([]string, 0, len(crumbs)+1)
		for _, c := range crumbs {
			names = append(names, c.Name)
		}
		names = append(names, r.Block.Name)
		r.RelativePath = strings.Join(names, " > ")
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, hydrationWorkers)
	for _, r := range merged {
		if r.Block.Type != models.BlockTypeTerminal {
			r.Fields = []*models.Field{}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(r *SearchResult) {
			defer wg.Done()
			defer func() { <-sem }()
			list, err := s.fieldSvc.listForBlock(ctx, owner, r.Block.UUID)
			if err != nil {
				s.logger.Warn(ctx, "field hydration failed, returning empty field list",
					"block", r.Block.UUID, "error", err.Error())
				r.Fields = []*models.Field{}
				return
			}
			r.Fields = list
		}(r)
	}
	wg.Wait()

	return nil
}

// rank orders the merged list. The relevance sort is fixed: match-type
// priority first, newest update second; callers cannot override that pair.
// The remaining sort keys are plain column sorts over the same merged list.
func (s *SearchService) rank(merged []*SearchResult, sortBy, sortDir string) {
	desc := sortDir != "asc"

	switch sortBy {
	case "", "relevance":
		sort.SliceStable(merged, func(i, j int) bool {
			pi, pj := matchPriority(merged[i].MatchType), matchPriority(merged[j].MatchType)
			if pi != pj {
				return pi < pj
			}
			return merged[i].Block.UpdatedAt.After(merged[j].Block.UpdatedAt)
		})
	case "name":
		sort.SliceStable(merged, func(i, j int) bool {
			if desc {
				return merged[i].Block.Name > merged[j].Block.Name
			}
			return merged[i].Block.Name < merged[j].Block.Name
		})
	case "createdAt":
		sort.SliceStable(merged, func(i, j int) bool {
			if desc {
				return merged[i].Block.CreatedAt.After(merged[j].Block.CreatedAt)
			}
			return merged[i].Block.CreatedAt.Before(merged[j].Block.CreatedAt)
		})
	case "updatedAt":
		sort.SliceStable(merged, func(i, j int) bool {
			if desc {
				return merged[i].Block.UpdatedAt.After(merged[j].Block.UpdatedAt)
			}
			return merged[i].Block.UpdatedAt.Before(merged[j].Block.UpdatedAt)
		})
	}
}
