package fetch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"

	"github.com/priceintel/pricingintel/internal/xlog"
)

var normalizeLog = xlog.New("fetch.normalize")

// trackingParams lists query parameters that are pure tracking noise and
// are stripped before an item's URL is used as a dedup key.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"ref_src":      true,
	"fbclid":       true,
	"gclid":        true,
	"igshid":       true,
}

// normalizeURL lowercases the host and strips tracking query parameters,
// so that links to the same article via different campaigns dedup
// together. Malformed URLs are returned unchanged.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if trackingParams[strings.ToLower(k)] {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// normalizeHTML strips tags from forum-post bodies (goquery) and renders
// any residual markdown to plain text (goldmark), so the scorer and
// summariser operate on comparable plain text regardless of source
// formatting.
func normalizeHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		normalizeLog.Warnf("html parse failed, falling back to raw text: %v", err)
		return collapseWhitespace(raw)
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		text = raw
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err == nil {
		rendered := stripHTMLTags(buf.String())
		if strings.TrimSpace(rendered) != "" {
			text = rendered
		}
	}

	return collapseWhitespace(text)
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

func stripHTMLTags(s string) string {
	return htmlTagPattern.ReplaceAllString(s, "")
}

var whitespacePattern = regexp.MustCompile(`[ \t]+`)

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(whitespacePattern.ReplaceAllString(l, " "))
	}
	joined := strings.Join(lines, "\n")
	return strings.TrimSpace(regexp.MustCompile(`\n{3,}`).ReplaceAllString(joined, "\n\n"))
}

// contentHash fingerprints title+body for the dedup fallback key used when
// two items share no normalizable URL.
func contentHash(title, body string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	h.Write([]byte("\x00"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(body))))
	return hex.EncodeToString(h.Sum(nil))
}
