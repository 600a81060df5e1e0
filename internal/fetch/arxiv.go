// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/httputil"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivInterval is the pause arXiv asks for between API calls.
var arxivInterval = 3 * time.Second

const (
	arxivPageSize = 100

	// ArxivJournal is the journal name given to preprints.
	ArxivJournal = "arXiv"
)

// categoryFields maps arXiv archive prefixes to catalog field tags.
var categoryFields = map[string]string{
	"econ":  "economics",
	"q-fin": "economics",
	"stat":  "statistics",
}

// ArxivFetcher lists preprints submitted to arXiv categories.
type ArxivFetcher struct {
	client  *http.Client
	cfg     types.FetchConfig
	catalog *catalog.Catalog
	limiter *rate.Limiter
}

// NewArxivFetcher returns a fetcher sharing the OpenAlex HTTP settings. A nil
// cat uses the embedded catalog.
func NewArxivFetcher(cfg types.FetchConfig, cat *catalog.Catalog) *ArxivFetcher {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
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
	return &ArxivFetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		catalog: cat,
		limiter: rate.NewLimiter(rate.Every(arxivInterval), 1),
	}
}

// Fetch returns preprints in q.Categories submitted between q.From and q.To,
// newest first. Journals in q are ignored.
func (f *ArxivFetcher) Fetch(ctx context.Context, q Query) ([]types.Paper, error) {
	if err := checkRange(q); err != nil {
		return nil, err
	}
	search := buildArxivQuery(q)
	if search == "" {
		return nil, fmt.Errorf("no arXiv categories given")
	}

	log := logging.Component("fetch")
	seen := make(map[string]bool)
	var papers []types.Paper
	start := 0
	for page := 1; page <= f.cfg.MaxPages; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		feed, err := f.fetchPage(ctx, search, start)
		if err != nil {
			metrics.FetchPages.WithLabelValues("arxiv", "failure").Inc()
			return nil, fmt.Errorf("arXiv page %d: %w", page, err)
		}
		metrics.FetchPages.WithLabelValues("arxiv", "success").Inc()
		log.Debug().Int("page", page).Int("results", len(feed.Entries)).Int("total", feed.TotalResults).Msg("arXiv page fetched")

		for _, e := range feed.Entries {
			p, ok := f.toPaper(e)
			if !ok || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			papers = append(papers, p)
		}
		start += len(feed.Entries)
		if len(feed.Entries) == 0 || start >= feed.TotalResults {
			break
		}
	}
	log.Info().
		Str("from", q.From.Format(dateLayout)).
		Str("to", q.To.Format(dateLayout)).
		Strs("categories", q.Categories).
		Int("papers", len(papers)).
		Msg("fetched preprints")
	return papers, nil
}

// buildArxivQuery renders the search_query parameter: any of the categories,
// submitted within the date range.
func buildArxivQuery(q Query) string {
	var cats []string
	for _, c := range q.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, "cat:"+c)
		}
	}
	if len(cats) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s) AND submittedDate:[%s0000 TO %s2359]",
		strings.Join(cats, " OR "), q.From.Format("20060102"), q.To.Format("20060102"))
}

func (f *ArxivFetcher) fetchPage(ctx context.Context, search string, start int) (*arxivFeed, error) {
	params := url.Values{
		"search_query": {search},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(arxivPageSize)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("arXiv API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// toPaper maps one Atom entry to a Paper with an "arXiv:" prefixed ID.
func (f *ArxivFetcher) toPaper(e arxivEntry) (types.Paper, bool) {
	id := extractArxivID(e.ID)
	title := collapseSpace(e.Title)
	if id == "" || title == "" {
		return types.Paper{}, false
	}
	p := types.Paper{
		ID:            "arXiv:" + id,
		Title:         title,
		Abstract:      collapseSpace(e.Summary),
		Journal:       ArxivJournal,
		DOI:           strings.TrimSpace(e.DOI),
		OpenAccess:    true,
		OpenAccessURL: "https://arxiv.org/pdf/" + id,
	}
	for _, l := range e.Links {
		if l.Title == "pdf" && l.Href != "" {
			p.OpenAccessURL = l.Href
		}
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.PublishedAt = t.UTC()
	}
	archive, _, _ := strings.Cut(e.PrimaryCategory.Term, ".")
	p.JournalField = categoryFields[archive]
	f.catalog.Enrich(&p)
	return p, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL without its
// version suffix (e.g. "http://arxiv.org/abs/2609.01234v2" gives "2609.01234").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])
	if v := strings.LastIndex(id, "v"); v > 0 {
		if _, err := strconv.Atoi(id[v+1:]); err == nil {
			id = id[:v]
		}
	}
	return id
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	TotalResults int          `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string        `xml:"id"`
	Title           string        `xml:"title"`
	Summary         string        `xml:"summary"`
	Published       string        `xml:"published"`
	Authors         []arxivAuthor `xml:"author"`
	Links           []arxivLink   `xml:"link"`
	DOI             string        `xml:"http://arxiv.org/schemas/atom doi"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}
