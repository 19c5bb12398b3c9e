// Package htmltomarkdown converts sanitized article HTML to markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/fwojciec/canillita"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Converter implements canillita.Converter at compile time.
var _ canillita.Converter = (*Converter)(nil)

// Converter sanitizes HTML down to text structure and converts it to
// markdown. Images, embeds, tables and scripts are dropped; links keep
// only http and https targets.
type Converter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "strong", "b", "em", "i", "a")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("http", "https")
	policy.RequireParseableURLs(true)

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithListEndComment(false),
			),
		),
	)
	return &Converter{policy: policy, conv: conv}
}

// Convert sanitizes html and transforms it into markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", canillita.Errorf(canillita.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(c.policy.Sanitize(html))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}
