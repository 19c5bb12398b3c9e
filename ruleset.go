package canillita

import (
	"net/url"
	"regexp"
	"strings"
)

// Strategy identifiers used in Ruleset.MethodPriority.
const (
	MethodStructured  = "structured"
	MethodLibrary     = "library"
	MethodReadability = "readability"
)

// Ruleset defaults.
const (
	DefaultRulesetName  = "default"
	DefaultMinLength    = 200
	DefaultMaxLength    = 50000
	DefaultMinTextRatio = 0.6

	// MinTitleLength is the shortest title the quality gate accepts.
	MinTitleLength = 10
)

// DefaultIncludeElements lists the element kinds walked inside a content
// container when a ruleset does not name its own.
var DefaultIncludeElements = []string{"p", "h2", "h3", "h4", "h5", "h6"}

// TitleRules configures title extraction.
type TitleRules struct {
	Selectors       []string `yaml:"selectors"`
	CleanupPatterns []string `yaml:"cleanup_patterns"`
}

// ContentRules configures body extraction.
type ContentRules struct {
	Selectors       []string `yaml:"selectors"`
	IncludeElements []string `yaml:"include_elements"`
	MinLength       int      `yaml:"min_length"`
	MaxLength       int      `yaml:"max_length"`
}

// SelectorRules holds an ordered selector list.
type SelectorRules struct {
	Selectors []string `yaml:"selectors"`
}

// QualityRules holds quality gate thresholds.
type QualityRules struct {
	RejectIfContains []string `yaml:"reject_if_contains"`
	MinTextRatio     float64  `yaml:"min_text_ratio"`
}

// Ruleset is the declarative configuration that drives extraction,
// cleanup and quality checks for one origin. A Ruleset must be compiled
// before use and must not be modified afterwards; compiled rulesets are
// shared between workers.
type Ruleset struct {
	Name            string        `yaml:"name"`
	MethodPriority  []string      `yaml:"method_priority"`
	Title           TitleRules    `yaml:"title"`
	Content         ContentRules  `yaml:"content"`
	Author          SelectorRules `yaml:"author"`
	Date            SelectorRules `yaml:"date"`
	RemoveElements  []string      `yaml:"remove_elements"`
	RemoveClasses   []string      `yaml:"remove_classes"`
	CleanupPatterns []string      `yaml:"cleanup_patterns"`
	Quality         QualityRules  `yaml:"quality"`

	titleCleanup  []*regexp.Regexp
	removeClasses []*regexp.Regexp
	cleanup       []*regexp.Regexp
	reject        []*regexp.Regexp
}

// DefaultRuleset returns the built-in ruleset used when no origin-specific
// ruleset exists.
func DefaultRuleset() *Ruleset {
	rs := &Ruleset{
		Name:           DefaultRulesetName,
		MethodPriority: []string{MethodStructured, MethodLibrary},
		Title: TitleRules{
			Selectors: []string{"h1", `meta[property="og:title"]`, "title"},
		},
		Content: ContentRules{
			Selectors: []string{"article", "main", `[itemprop="articleBody"]`},
		},
		Author: SelectorRules{
			Selectors: []string{`meta[name="author"]`, ".author", ".autor"},
		},
		Date: SelectorRules{
			Selectors: []string{`meta[property="article:published_time"]`, "time", ".date"},
		},
		RemoveElements: []string{"script", "style", "nav", "footer", "aside", "iframe", "form"},
		RemoveClasses:  []string{"share", "social", "related", "newsletter", "advert"},
	}
	// The built-in patterns are constant and always compile.
	if err := rs.Compile(); err != nil {
		panic(err)
	}
	return rs
}

// Validate returns an error if the ruleset cannot drive extraction.
func (r *Ruleset) Validate() error {
	if len(r.Content.Selectors) == 0 {
		return Errorf(EINVALID, "ruleset %q: content.selectors required", r.Name)
	}
	if r.Content.MinLength < 0 || r.Content.MaxLength < 0 {
		return Errorf(EINVALID, "ruleset %q: content lengths must not be negative", r.Name)
	}
	if r.Quality.MinTextRatio < 0 || r.Quality.MinTextRatio > 1 {
		return Errorf(EINVALID, "ruleset %q: quality.min_text_ratio must be within [0, 1]", r.Name)
	}
	return nil
}

// Compile applies defaults, validates the ruleset and compiles its
// patterns. Patterns are matched case-insensitively; body cleanup
// and reject patterns also match per line.
func (r *Ruleset) Compile() error {
	if r.Name == "" {
		r.Name = DefaultRulesetName
	}
	if len(r.MethodPriority) == 0 {
		r.MethodPriority = []string{MethodStructured, MethodLibrary}
	}
	if len(r.Title.Selectors) == 0 {
		r.Title.Selectors = []string{"h1", "title"}
	}
	if len(r.Content.IncludeElements) == 0 {
		r.Content.IncludeElements = append([]string(nil), DefaultIncludeElements...)
	}
	if r.Content.MinLength == 0 {
		r.Content.MinLength = DefaultMinLength
	}
	if r.Content.MaxLength == 0 {
		r.Content.MaxLength = DefaultMaxLength
	}
	if r.Quality.MinTextRatio == 0 {
		r.Quality.MinTextRatio = DefaultMinTextRatio
	}

	if err := r.Validate(); err != nil {
		return err
	}

	var err error
	if r.titleCleanup, err = compilePatterns(r.Name, "title.cleanup_patterns", "(?i)", r.Title.CleanupPatterns); err != nil {
		return err
	}
	if r.removeClasses, err = compilePatterns(r.Name, "remove_classes", "(?i)", r.RemoveClasses); err != nil {
		return err
	}
	if r.cleanup, err = compilePatterns(r.Name, "cleanup_patterns", "(?im)", r.CleanupPatterns); err != nil {
		return err
	}
	if r.reject, err = compilePatterns(r.Name, "quality.reject_if_contains", "(?im)", r.Quality.RejectIfContains); err != nil {
		return err
	}
	return nil
}

func compilePatterns(name, field, flags string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(flags + p)
		if err != nil {
			return nil, Errorf(EINVALID, "ruleset %q: invalid %s pattern %q: %v", name, field, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// CleanTitle applies the title cleanup patterns and trims the result.
func (r *Ruleset) CleanTitle(title string) string {
	for _, re := range r.titleCleanup {
		title = re.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

// MatchesRemoveClass reports whether a class attribute matches any of the
// remove_classes patterns.
func (r *Ruleset) MatchesRemoveClass(class string) bool {
	if class == "" {
		return false
	}
	for _, re := range r.removeClasses {
		if re.MatchString(class) {
			return true
		}
	}
	return false
}

// NormalizeOrigin lowercases a host name and strips a leading "www.".
func NormalizeOrigin(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// OriginOf returns the normalized origin of a URL.
func OriginOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid url %q: %v", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", Errorf(EINVALID, "url %q has no host", rawURL)
	}
	return NormalizeOrigin(u.Hostname()), nil
}

// RuleResolver maps an origin to the ruleset used to extract its documents.
type RuleResolver interface {
	// Resolve returns the ruleset for the normalized origin, or the default
	// ruleset when no valid origin-specific ruleset exists. It never fails.
	Resolve(origin string) *Ruleset
}
