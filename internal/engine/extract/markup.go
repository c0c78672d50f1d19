package extract

import (
	"bytes"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"golang.org/x/net/html/charset"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// extractMarkup walks repeated listing containers. When no container selector
// matches it falls back to embedded JSON-LD JobPosting blocks.
func extractMarkup(p engine.RawPayload, t *engine.Tables) (Result, error) {
	r, err := charset.NewReader(bytes.NewReader(p.Data), "text/html")
	if err != nil {
		return Result{}, errors.Wrapf(engine.ErrCorruptPayload, "%s: decode charset: %v", p.SourcePath, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, errors.Wrapf(engine.ErrCorruptPayload, "%s: parse html: %v", p.SourcePath, err)
	}

	containers := findContainers(doc, t)
	if containers.Length() == 0 {
		return extractJSONLD(doc, p, t), nil
	}

	var res Result
	containers.Each(func(i int, s *goquery.Selection) {
		res.collect(mapContainer(s, p, t), i, p)
	})
	return res, nil
}

// findContainers tries the primary class selectors, then the secondary
// attribute selectors. A match is a card when it holds a title or organization
// field. Only the innermost cards are kept so a list wrapper never swallows
// its cards, and a field node that happens to match the group is never a card.
func findContainers(doc *goquery.Document, t *engine.Tables) *goquery.Selection {
	fields := strings.Join(append(slices.Clone(t.Markup.Fields[fieldTitle]), t.Markup.Fields[fieldOrganization]...), ", ")
	isCard := func(s *goquery.Selection) bool {
		return fields != "" && s.Find(fields).Length() > 0
	}
	for _, group := range [][]string{t.Markup.Primary, t.Markup.Secondary} {
		if len(group) == 0 {
			continue
		}
		selector := strings.Join(group, ", ")
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}
		cards := matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
			if !isCard(s) {
				return false
			}
			nested := s.Find(selector).FilterFunction(func(_ int, c *goquery.Selection) bool {
				return isCard(c)
			})
			return nested.Length() == 0
		})
		if cards.Length() > 0 {
			return cards
		}
		// No card-shaped match: keep the innermost ones so each surfaces as a skip.
		return matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find(selector).Length() == 0
		})
	}
	return doc.FindNodes()
}

// mapContainer looks up each field inside one container; first non-empty match wins.
func mapContainer(s *goquery.Selection, p engine.RawPayload, t *engine.Tables) *builder {
	b := newBuilder()
	for _, field := range textFields {
		for _, sel := range t.Markup.Fields[field] {
			node := s.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			b.set(field, nodeValue(node, field, p.OriginSite))
			if b.fields[field] != "" {
				break
			}
		}
	}
	if b.fields[fieldURL] == "" {
		if href, ok := s.Attr("href"); ok {
			b.set(fieldURL, resolveURL(href, p.OriginSite))
		}
	}
	for _, sel := range t.Markup.Fields[fieldKeywords] {
		s.Find(sel).Each(func(_ int, k *goquery.Selection) {
			b.addKeywords(k.Text())
		})
	}
	return b
}

// nodeValue prefers attribute sources (href, datetime, content) over text.
func nodeValue(node *goquery.Selection, field, origin string) string {
	switch field {
	case fieldURL:
		if href, ok := node.Attr("href"); ok {
			return resolveURL(href, origin)
		}
		return ""
	case fieldPostingDate:
		if dt, ok := node.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return dt
		}
	}
	if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return content
	}
	return engine.CollapseSpace(node.Text())
}

// resolveURL makes href absolute against https://<origin>.
func resolveURL(href, origin string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() || origin == "" {
		return ref.String()
	}
	host := origin
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
