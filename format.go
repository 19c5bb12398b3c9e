package canillita

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinElementLength is the shortest element text kept by the formatter.
const MinElementLength = 5

// MinPromotedHeadingLength is the shortest heading promoted by PromoteHeadings.
const MinPromotedHeadingLength = 11

var meaninglessPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(share|compartir)\s*$`),
	regexp.MustCompile(`(?i)^\s*(follow|seguir)\s*$`),
	regexp.MustCompile(`(?i)^\s*tags?\s*[:.]`),
	regexp.MustCompile(`(?i)^\s*(author|autor)\s*[:.]`),
	regexp.MustCompile(`(?i)^\s*(date|fecha)\s*[:.]`),
	regexp.MustCompile(`(?i)^\s*(source|fuente)\s*[:.]`),
}

var (
	reManyNewlines = regexp.MustCompile(`\n\s*\n\s*\n`)
	reHSpace       = regexp.MustCompile(`[ \t]+`)
)

// IsMeaningful reports whether element text carries article content, as
// opposed to labels such as a bare "share" link or a "tags:" marker.
func IsMeaningful(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinElementLength {
		return false
	}
	for _, re := range meaninglessPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

// FormatElements renders retained structural elements as a canonical
// markup-light text block.
func FormatElements(elems []Element) string {
	parts := make([]string, 0, len(elems))
	for _, el := range elems {
		text := collapseSpace(el.Text)
		if !IsMeaningful(text) {
			continue
		}

		switch el.Kind {
		case "h1":
			parts = append(parts, "# "+text)
		case "h2":
			parts = append(parts, "## "+text)
		case "h3":
			parts = append(parts, "### "+text)
		case "h4", "h5", "h6":
			parts = append(parts, "**"+text+"**")
		case "ul", "ol":
			if list := formatList(el); list != "" {
				parts = append(parts, list)
			}
		case "blockquote":
			parts = append(parts, "> "+text)
		default:
			parts = append(parts, text)
		}
	}
	return normalizeWhitespace(strings.Join(parts, "\n\n"))
}

func formatList(el Element) string {
	var lines []string
	for _, item := range el.Items {
		item = collapseSpace(item)
		if item == "" {
			continue
		}
		if el.Kind == "ol" {
			lines = append(lines, strconv.Itoa(len(lines)+1)+". "+item)
		} else {
			lines = append(lines, "• "+item)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatContent formats elements and applies the ruleset cleanup.
func FormatContent(elems []Element, rs *Ruleset) string {
	return Cleanup(FormatElements(elems), rs)
}

// Cleanup applies the ruleset cleanup patterns, normalizes whitespace and
// Unicode composition, and truncates to the ruleset max length.
func Cleanup(text string, rs *Ruleset) string {
	for _, re := range rs.cleanup {
		text = re.ReplaceAllString(text, "")
	}
	text = norm.NFC.String(text)
	text = normalizeWhitespace(text)
	return Truncate(text, rs.Content.MaxLength)
}

// Truncate cuts text to at most limit characters. When the cut falls
// inside a sentence it backs off to the last period or paragraph break,
// provided that boundary lies at or after 80% of limit.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)[:limit]
	cut := lastRuneIndex(runes, func(i int) bool { return runes[i] == '.' })
	if para := lastRuneIndex(runes, func(i int) bool {
		return runes[i] == '\n' && i > 0 && runes[i-1] == '\n'
	}); para-1 > cut {
		cut = para - 1
	}

	if cut >= 0 && float64(cut) >= float64(limit)*0.8 {
		runes = runes[:cut+1]
	}
	return strings.TrimSpace(string(runes))
}

func lastRuneIndex(runes []rune, match func(i int) bool) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if match(i) {
			return i
		}
	}
	return -1
}

// PromoteHeadings marks lines of plain text that repeat a document heading
// as level-two headings. Only whole lines equal to a heading are promoted,
// after collapsing whitespace on both sides; a heading quoted inside a
// longer line is left alone. Headings shorter than
// MinPromotedHeadingLength characters are ignored.
func PromoteHeadings(text string, headings []string) string {
	set := make(map[string]struct{}, len(headings))
	for _, h := range headings {
		h = collapseSpace(h)
		if utf8.RuneCountInString(h) >= MinPromotedHeadingLength {
			set[h] = struct{}{}
		}
	}
	if len(set) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if _, ok := set[collapseSpace(line)]; ok {
			lines[i] = "## " + collapseSpace(line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeWhitespace(s string) string {
	s = reHSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = reManyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
