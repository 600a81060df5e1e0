// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-feed/pkg/types"
)

func useArxivServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	origURL, origInterval := arxivAPIBase, arxivInterval
	arxivAPIBase = ts.URL + "/api/query"
	arxivInterval = time.Millisecond
	t.Cleanup(func() {
		arxivAPIBase, arxivInterval = origURL, origInterval
		ts.Close()
	})
}

const arxivEntryTmpl = `
  <entry>
    <id>http://arxiv.org/abs/%s</id>
    <published>2026-09-%02dT17:00:00Z</published>
    <title>%s</title>
    <summary>  We study how minimum
      wages affect employment.  </summary>
    <author><name>Ada Smith</name></author>
    <author><name> Ben Jones </name></author>
    <arxiv:doi>10.48550/arXiv.%s</arxiv:doi>
    <link href="http://arxiv.org/pdf/%s" rel="related" type="application/pdf" title="pdf"/>
    <arxiv:primary_category term="%s" scheme="http://arxiv.org/schemas/atom"/>
  </entry>`

func arxivPage(total int, entries ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>%d</opensearch:totalResults>%s
</feed>`, total, joinEntries(entries))
}

func joinEntries(entries []string) string {
	out := ""
	for _, e := range entries {
		out += e
	}
	return out
}

func arxivEntryXML(id string, dayOfMonth int, title, category string) string {
	return fmt.Sprintf(arxivEntryTmpl, id, dayOfMonth, title, id, id, category)
}

func TestArxivFetchPaginatesAndMaps(t *testing.T) {
	var calls atomic.Int32
	useArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "(cat:econ.GN OR cat:stat.AP) AND submittedDate:[202609010000 TO 202609302359]", q.Get("search_query"))
		assert.Equal(t, "submittedDate", q.Get("sortBy"))
		switch q.Get("start") {
		case "0":
			fmt.Fprint(w, arxivPage(3,
				arxivEntryXML("2609.00001v2", 3, "Minimum Wages and\n      Employment", "econ.GN"),
				arxivEntryXML("2609.00002v1", 2, "Survey Weights in Practice", "stat.AP"),
			))
		case "2":
			fmt.Fprint(w, arxivPage(3,
				arxivEntryXML("2609.00003v1", 1, "Deep Nets for Images", "cs.CV"),
				arxivEntryXML("2609.00001v3", 3, "Minimum Wages and Employment", "econ.GN"),
			))
		default:
			t.Errorf("unexpected start %q", q.Get("start"))
		}
	})

	f := NewArxivFetcher(types.FetchConfig{}, nil)
	papers, err := f.Fetch(context.Background(), Query{
		From:       day("2026-09-01"),
		To:         day("2026-09-30"),
		Categories: []string{"econ.GN", " stat.AP "},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, papers, 3)

	p := papers[0]
	assert.Equal(t, "arXiv:2609.00001", p.ID)
	assert.Equal(t, "Minimum Wages and Employment", p.Title)
	assert.Equal(t, "We study how minimum wages affect employment.", p.Abstract)
	assert.Equal(t, []string{"Ada Smith", "Ben Jones"}, p.Authors)
	assert.Equal(t, ArxivJournal, p.Journal)
	assert.Equal(t, 4, p.JournalTier)
	assert.Equal(t, "economics", p.JournalField)
	assert.Equal(t, "10.48550/arXiv.2609.00001v2", p.DOI)
	assert.Equal(t, "http://arxiv.org/pdf/2609.00001v2", p.OpenAccessURL)
	assert.True(t, p.OpenAccess)
	assert.Equal(t, time.Date(2026, 9, 3, 17, 0, 0, 0, time.UTC), p.PublishedAt)

	assert.Equal(t, "statistics", papers[1].JournalField)
	assert.Equal(t, "", papers[2].JournalField)
}

func TestArxivFetchStopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	useArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, arxivPage(500))
	})
	f := NewArxivFetcher(types.FetchConfig{}, nil)
	papers, err := f.Fetch(context.Background(), Query{From: day("2026-09-01"), To: day("2026-09-02"), Categories: []string{"econ.EM"}})
	require.NoError(t, err)
	assert.Empty(t, papers)
	assert.Equal(t, int32(1), calls.Load())
}

func TestArxivFetchErrors(t *testing.T) {
	useArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	})
	f := NewArxivFetcher(types.FetchConfig{}, nil)

	_, err := f.Fetch(context.Background(), Query{From: day("2026-09-01"), To: day("2026-09-02")})
	assert.ErrorContains(t, err, "no arXiv categories")

	_, err = f.Fetch(context.Background(), Query{From: day("2026-09-02"), To: day("2026-09-01"), Categories: []string{"econ.GN"}})
	assert.ErrorContains(t, err, "before it starts")

	_, err = f.Fetch(context.Background(), Query{From: day("2026-09-01"), To: day("2026-09-02"), Categories: []string{"econ.GN"}})
	assert.ErrorContains(t, err, "HTTP 400")
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2609.01234v2", "2609.01234"},
		{"http://arxiv.org/abs/2609.01234", "2609.01234"},
		{"http://arxiv.org/abs/econ/0601001v1", "econ/0601001"},
		{"http://arxiv.org/api/errors#incorrect_id_format", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArxivID(tt.in), tt.in)
	}
}
