// Package probe turns a page URL into text for a new task. Pull request URLs
// become markdown links titled after the pull request when the page can be
// read.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxBody = 2 << 20

var pullURL = regexp.MustCompile(`^https?://github\.com/([^/\s]+)/([^/\s]+)/pull/(\d+)`)

// PullRequest is a parsed pull request URL.
type PullRequest struct {
	Owner  string
	Repo   string
	Number string
}

func (p PullRequest) String() string {
	return fmt.Sprintf("%s/%s#%s", p.Owner, p.Repo, p.Number)
}

// ParsePullRequest reports whether rawURL points at a pull request.
func ParsePullRequest(rawURL string) (PullRequest, bool) {
	m := pullURL.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return PullRequest{}, false
	}
	return PullRequest{Owner: m[1], Repo: m[2], Number: m[3]}, true
}

type Prober struct {
	Client *http.Client
	Log    *slog.Logger
}

func New(client *http.Client, log *slog.Logger) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prober{Client: client, Log: log}
}

// Link returns text for rawURL. It never fails: a pull request whose page
// cannot be read gets a link named owner/repo#N, and anything that is not a
// pull request comes back as the trimmed input.
func (p *Prober) Link(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	pr, ok := ParsePullRequest(rawURL)
	if !ok {
		return rawURL
	}
	title, err := p.fetchTitle(ctx, rawURL)
	if err != nil {
		p.Log.Debug("probe fell back to short link", "url", rawURL, "err", err)
		return markdownLink(pr.String(), rawURL)
	}
	return markdownLink(title, rawURL)
}

func (p *Prober) fetchTitle(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	if title := findTitle(doc); title != "" {
		return title, nil
	}
	return "", fmt.Errorf("no title element")
}

// findTitle prefers the element GitHub renders the pull request title into
// and falls back to the document title with its " · " suffixes removed.
func findTitle(doc *html.Node) string {
	if n := find(doc, func(n *html.Node) bool { return hasClass(n, "js-issue-title") }); n != nil {
		if t := collapse(text(n)); t != "" {
			return t
		}
	}
	if n := find(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "title" }); n != nil {
		t := collapse(text(n))
		if i := strings.Index(t, " · "); i > 0 {
			t = t[:i]
		}
		if i := strings.LastIndex(t, " by "); i > 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return ""
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var linkEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func markdownLink(title, url string) string {
	return "[" + linkEscaper.Replace(title) + "](" + url + ")"
}
