package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewrite sends every request to srv regardless of host.
type rewrite struct{ srv *httptest.Server }

func (r rewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = strings.TrimPrefix(r.srv.URL, "http://")
	return http.DefaultTransport.RoundTrip(out)
}

func proberFor(t *testing.T, handler http.HandlerFunc) *Prober {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&http.Client{Transport: rewrite{srv}}, nil)
}

const prURL = "https://github.com/acme/widgets/pull/42"

func TestParsePullRequest(t *testing.T) {
	pr, ok := ParsePullRequest(prURL + "/files")
	require.True(t, ok)
	assert.Equal(t, PullRequest{Owner: "acme", Repo: "widgets", Number: "42"}, pr)
	assert.Equal(t, "acme/widgets#42", pr.String())

	for _, u := range []string{
		"https://github.com/acme/widgets/issues/42",
		"https://example.com/acme/widgets/pull/42",
		"not a url",
		"",
	} {
		_, ok := ParsePullRequest(u)
		assert.False(t, ok, u)
	}
}

func TestLinkUsesIssueTitleElement(t *testing.T) {
	p := proberFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme/widgets/pull/42", r.URL.Path)
		w.Write([]byte(`<html><head><title>ignored</title></head><body>
<h1><bdi class="js-issue-title markdown-title">
  Fix the   [flaky] test
</bdi></h1></body></html>`))
	})
	assert.Equal(t, `[Fix the \[flaky\] test](`+prURL+`)`, p.Link(context.Background(), prURL))
}

func TestLinkFallsBackToDocumentTitle(t *testing.T) {
	p := proberFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Add retries by someone · Pull Request #42 · acme/widgets · GitHub</title></head></html>`))
	})
	assert.Equal(t, "[Add retries]("+prURL+")", p.Link(context.Background(), prURL))
}

func TestLinkFallsBackToShortName(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"no title": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			p := proberFor(t, h)
			assert.Equal(t, "[acme/widgets#42]("+prURL+")", p.Link(context.Background(), prURL))
		})
	}
}

func TestLinkCanceledContext(t *testing.T) {
	p := proberFor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "[acme/widgets#42]("+prURL+")", p.Link(ctx, prURL))
}

func TestLinkNonPullRequest(t *testing.T) {
	p := New(nil, nil)
	assert.Equal(t, "https://example.com/page", p.Link(context.Background(), "  https://example.com/page "))
	assert.Equal(t, "", p.Link(context.Background(), ""))
}
