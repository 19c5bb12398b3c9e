package goquery

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/canillita"
)

// MinTitleCandidateLength is the shortest title text a selector may yield.
const MinTitleCandidateLength = 6

// Ensure StructuredStrategy implements canillita.Strategy at compile time.
var _ canillita.Strategy = (*StructuredStrategy)(nil)

// StructuredStrategy extracts articles with the CSS selectors of a ruleset.
type StructuredStrategy struct{}

// NewStructuredStrategy creates a new StructuredStrategy.
func NewStructuredStrategy() *StructuredStrategy {
	return &StructuredStrategy{}
}

// Name returns the strategy identifier.
func (s *StructuredStrategy) Name() string {
	return canillita.MethodStructured
}

// Extract fetches the document and extracts an article from it.
func (s *StructuredStrategy) Extract(ctx context.Context, src canillita.Source, rs *canillita.Ruleset) (*canillita.Article, error) {
	doc, err := src.Document(ctx)
	if err != nil {
		return nil, err
	}
	article, err := ExtractArticle(doc.HTML, rs)
	if err != nil {
		return nil, err
	}
	article.URL = src.URL()
	return article, nil
}

// ExtractArticle extracts an article from HTML using the ruleset selectors.
// It returns EREJECTED when no title or content container matches.
func ExtractArticle(html string, rs *canillita.Ruleset) (*canillita.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, canillita.Errorf(canillita.EINVALID, "failed to parse HTML: %v", err)
	}

	RemoveNoise(doc, rs)

	title := Title(doc, rs)
	if title == "" {
		return nil, canillita.Errorf(canillita.EREJECTED, "no title selector matched")
	}

	elems, ok := ContentElements(doc, rs)
	if !ok {
		return nil, canillita.Errorf(canillita.EREJECTED, "no content selector matched")
	}

	body := canillita.FormatContent(elems, rs)
	if body == "" {
		return nil, canillita.Errorf(canillita.EREJECTED, "content container has no meaningful text")
	}

	return &canillita.Article{
		Title:       title,
		Body:        body,
		Authors:     Authors(doc, rs),
		PublishedAt: PublishDate(doc, rs),
		Method:      canillita.MethodStructured,
		Ruleset:     rs.Name,
	}, nil
}

// RemoveNoise removes the ruleset's noise elements and every element whose
// class attribute matches a remove_classes pattern.
func RemoveNoise(doc *goquery.Document, rs *canillita.Ruleset) {
	for _, sel := range rs.RemoveElements {
		doc.Find(sel).Remove()
	}
	doc.Find("body [class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return rs.MatchesRemoveClass(class)
	}).Remove()
}

// Title returns the first title selector match with enough text, cleaned
// with the ruleset title patterns. A content attribute takes precedence
// over element text so that meta tags can be used as selectors.
func Title(doc *goquery.Document, rs *canillita.Ruleset) string {
	for _, sel := range rs.Title.Selectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(attrOrText(s, "content"))
		if utf8.RuneCountInString(text) < MinTitleCandidateLength {
			continue
		}
		if title := rs.CleanTitle(collapse(text)); title != "" {
			return title
		}
	}
	return ""
}

// ContentElements walks the include elements of the first matching content
// container. Elements nested inside another included element are skipped.
func ContentElements(doc *goquery.Document, rs *canillita.Ruleset) ([]canillita.Element, bool) {
	var container *goquery.Selection
	for _, sel := range rs.Content.Selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			container = s
			break
		}
	}
	if container == nil {
		return nil, false
	}

	include := strings.Join(rs.Content.IncludeElements, ", ")
	var elems []canillita.Element
	container.Find(include).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsUntilSelection(container).Filter(include).Length() > 0 {
			return
		}
		el := canillita.Element{
			Kind: goquery.NodeName(s),
			Text: s.Text(),
		}
		if el.Kind == "ul" || el.Kind == "ol" {
			s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				el.Items = append(el.Items, li.Text())
			})
		}
		elems = append(elems, el)
	})
	return elems, true
}

// Authors collects the distinct author names matched by the author selectors.
func Authors(doc *goquery.Document, rs *canillita.Ruleset) []string {
	var authors []string
	for _, sel := range rs.Author.Selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			authors = append(authors, collapse(attrOrText(s, "content")))
		})
	}
	return canillita.UniqueStrings(authors)
}

// PublishDate returns the first parseable date matched by the date selectors.
func PublishDate(doc *goquery.Document, rs *canillita.Ruleset) *time.Time {
	for _, sel := range rs.Date.Selectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		value := attrOrText(s, "content", "datetime")
		if t := canillita.ParseDate(value); t != nil {
			return t
		}
	}
	return nil
}

// Headings returns the text of every heading left after noise removal.
func Headings(html string, rs *canillita.Ruleset) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, canillita.Errorf(canillita.EINVALID, "failed to parse HTML: %v", err)
	}
	RemoveNoise(doc, rs)

	var headings []string
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			headings = append(headings, text)
		}
	})
	return headings, nil
}

// attrOrText returns the first non-empty attribute among attrs, or the
// element text.
func attrOrText(s *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, ok := s.Attr(a); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return s.Text()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
