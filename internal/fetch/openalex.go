// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves candidate papers for a publication date range:
// journal articles from the OpenAlex works API and, optionally, preprints
// from arXiv categories.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/httputil"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/pkg/types"
)

// openAlexWorksURL is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksURL = "https://api.openalex.org/works"

const (
	defaultPerPage   = 200
	defaultMaxPages  = 10
	defaultRPS       = 5.0
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "research-feed/0.1"

	// issnChunk bounds the number of ISSNs OR-ed into one filter value.
	issnChunk = 50

	dateLayout = "2006-01-02"
)

// Query selects papers published between From and To (inclusive) in the
// named catalog journals. No journals means every catalog journal.
// Categories applies to arXiv only.
type Query struct {
	From       time.Time
	To         time.Time
	Journals   []string
	Categories []string
}

// checkRange validates the query's date range.
func checkRange(q Query) error {
	if q.From.IsZero() || q.To.IsZero() {
		return fmt.Errorf("date range requires both from and to")
	}
	if q.To.Before(q.From) {
		return fmt.Errorf("date range ends (%s) before it starts (%s)", q.To.Format(dateLayout), q.From.Format(dateLayout))
	}
	return nil
}

// OpenAlexFetcher pages through OpenAlex works with cursor pagination.
type OpenAlexFetcher struct {
	client  *http.Client
	cfg     types.FetchConfig
	catalog *catalog.Catalog
	limiter *rate.Limiter
}

// NewOpenAlexFetcher returns a fetcher using cat for journal resolution and
// enrichment. A nil cat uses the embedded catalog.
func NewOpenAlexFetcher(cfg types.FetchConfig, cat *catalog.Catalog) *OpenAlexFetcher {
	if cfg.PerPage <= 0 || cfg.PerPage > defaultPerPage {
		cfg.PerPage = defaultPerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &OpenAlexFetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		catalog: cat,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Fetch returns the papers matching q, de-duplicated by ID, with tier and
// field filled from the catalog.
func (f *OpenAlexFetcher) Fetch(ctx context.Context, q Query) ([]types.Paper, error) {
	if err := checkRange(q); err != nil {
		return nil, err
	}
	issns, err := f.catalog.ISSNs(q.Journals)
	if err != nil {
		return nil, err
	}
	if len(issns) == 0 {
		return nil, fmt.Errorf("no journals with an ISSN to fetch")
	}

	log := logging.Component("fetch")
	seen := make(map[string]bool)
	var papers []types.Paper
	for start := 0; start < len(issns); start += issnChunk {
		chunk := issns[start:min(start+issnChunk, len(issns))]
		got, err := f.fetchFilter(ctx, buildFilter(q, chunk))
		if err != nil {
			return nil, err
		}
		for _, p := range got {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			papers = append(papers, p)
		}
	}
	log.Info().
		Str("from", q.From.Format(dateLayout)).
		Str("to", q.To.Format(dateLayout)).
		Int("journals", len(issns)).
		Int("papers", len(papers)).
		Msg("fetched papers")
	return papers, nil
}

// buildFilter renders the OpenAlex filter parameter.
func buildFilter(q Query, issns []string) string {
	return strings.Join([]string{
		"from_publication_date:" + q.From.Format(dateLayout),
		"to_publication_date:" + q.To.Format(dateLayout),
		"primary_location.source.issn:" + strings.Join(issns, "|"),
		"type:article",
	}, ",")
}

func (f *OpenAlexFetcher) fetchFilter(ctx context.Context, filter string) ([]types.Paper, error) {
	log := logging.Component("fetch")
	var papers []types.Paper
	cursor := "*"
	for page := 1; page <= f.cfg.MaxPages && cursor != ""; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := f.fetchPage(ctx, filter, cursor)
		if err != nil {
			metrics.FetchPages.WithLabelValues("openalex", "failure").Inc()
			return nil, fmt.Errorf("OpenAlex page %d: %w", page, err)
		}
		metrics.FetchPages.WithLabelValues("openalex", "success").Inc()
		log.Debug().Int("page", page).Int("results", len(resp.Results)).Int("total", resp.Meta.Count).Msg("page fetched")

		for _, w := range resp.Results {
			if p, ok := f.toPaper(w); ok {
				papers = append(papers, p)
			}
		}
		if len(resp.Results) == 0 {
			break
		}
		cursor = resp.Meta.NextCursor
	}
	return papers, nil
}

func (f *OpenAlexFetcher) fetchPage(ctx context.Context, filter, cursor string) (*worksResponse, error) {
	params := url.Values{
		"filter":   {filter},
		"per-page": {strconv.Itoa(f.cfg.PerPage)},
		"cursor":   {cursor},
	}
	if f.cfg.Email != "" {
		params.Set("mailto", f.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexWorksURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return &wr, nil
}

// toPaper maps one work to a Paper. Works without an ID or title are skipped.
func (f *OpenAlexFetcher) toPaper(w work) (types.Paper, bool) {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		title = strings.TrimSpace(w.DisplayName)
	}
	if w.ID == "" || title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:           strings.TrimPrefix(w.ID, "https://openalex.org/"),
		Title:        title,
		Abstract:     reconstructAbstract(w.AbstractInvertedIndex),
		DOI:          strings.TrimPrefix(w.DOI, "https://doi.org/"),
		CitedByCount: max(w.CitedByCount, 0),
		OpenAccess:   w.OpenAccess.IsOA,
		Concepts:     toConcepts(w),
	}
	if p.OpenAccess {
		p.OpenAccessURL = w.OpenAccess.OAURL
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}

	if w.PublicationDate != "" {
		if t, err := time.Parse(dateLayout, w.PublicationDate); err == nil {
			p.PublishedAt = t
		}
	} else if w.PublicationYear > 0 {
		p.PublishedAt = time.Date(w.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	if src := w.PrimaryLocation.Source; src != nil {
		p.Journal = src.DisplayName
		// Prefer the catalog's name so display and tier lookups agree.
		for _, issn := range append([]string{src.ISSNL}, src.ISSN...) {
			if j, ok := f.catalog.JournalByISSN(issn); ok {
				p.Journal = j.Name
				break
			}
		}
	}
	f.catalog.Enrich(&p)
	return p, true
}

// toConcepts merges legacy concepts and topics, keeping the highest
// confidence per name.
func toConcepts(w work) []types.Concept {
	best := make(map[string]float64)
	var order []string
	add := func(name string, score float64) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		score = min(max(score, 0), 1)
		prev, ok := best[name]
		if !ok {
			order = append(order, name)
		}
		if !ok || score > prev {
			best[name] = score
		}
	}
	for _, c := range w.Concepts {
		add(c.DisplayName, c.Score)
	}
	for _, t := range w.Topics {
		add(t.DisplayName, t.Score)
	}
	if len(order) == 0 {
		return nil
	}
	out := make([]types.Concept, len(order))
	for i, name := range order {
		out[i] = types.Concept{Name: name, Confidence: best[name]}
	}
	return out
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions where it appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type worksResponse struct {
	Meta    worksMeta `json:"meta"`
	Results []work    `json:"results"`
}

type worksMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationDate       string           `json:"publication_date"`
	PublicationYear       int              `json:"publication_year"`
	CitedByCount          int              `json:"cited_by_count"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	OpenAccess            openAccess       `json:"open_access"`
	PrimaryLocation       location         `json:"primary_location"`
	Concepts              []scoredTag      `json:"concepts"`
	Topics                []scoredTag      `json:"topics"`
}

type authorship struct {
	Author struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

type location struct {
	Source *source `json:"source"`
}

type source struct {
	DisplayName string   `json:"display_name"`
	ISSNL       string   `json:"issn_l"`
	ISSN        []string `json:"issn"`
}

type scoredTag struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}
