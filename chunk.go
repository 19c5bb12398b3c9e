package canillita

import (
	"strings"
	"unicode/utf8"
)

// Message template placeholders.
const (
	PlaceholderTitle   = "{title}"
	PlaceholderURL     = "{url}"
	PlaceholderContent = "{content}"
)

// Default message templates.
const (
	DefaultFirstTemplate        = "# {title}\n\n{content}\n\n---\n\n*[Source]({url})*"
	DefaultContinuationTemplate = "{content}"
)

var sentenceEndings = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// SplitChunks splits text into ordered segments. The first segment is at
// most first bytes long and every following segment at most next bytes.
// Breaks prefer, in order, a paragraph break or sentence end in the last
// 30% of the window, then a word boundary in the last 20%, and fall back to
// a hard cut. Segments keep their trailing delimiter and the text after a
// break is left-trimmed, so concatenating the segments of whitespace
// normalized text reproduces it. Cuts never split a UTF-8 sequence.
func SplitChunks(text string, first, next int) []string {
	if text == "" {
		return []string{""}
	}

	var chunks []string
	budget := first
	for text != "" {
		if len(text) <= budget {
			chunks = append(chunks, text)
			break
		}

		cut := breakPoint(text[:runeBoundary(text, budget)])
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], " \t\r\n")
		budget = next
	}
	return chunks
}

// breakPoint returns the length of the segment to take from candidate.
func breakPoint(candidate string) int {
	n := len(candidate)

	if i := strings.LastIndex(candidate, "\n\n"); i > 0 && float64(i) >= float64(n)*0.7 {
		return i + 2
	}

	best := -1
	for _, ending := range sentenceEndings {
		if i := strings.LastIndex(candidate, ending); i > best {
			best = i
		}
	}
	if best > 0 && float64(best) >= float64(n)*0.7 {
		return best + 2
	}

	if i := strings.LastIndexAny(candidate, " \n"); i > 0 && float64(i) >= float64(n)*0.8 {
		return i + 1
	}

	return n
}

// runeBoundary returns the largest index <= n that starts a rune in s.
// It always returns at least the length of the first rune so that each
// segment makes progress.
func runeBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for i := n; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return i
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}

// Templates formats chunks into delivered messages. First wraps the first
// chunk and Continuation wraps every following chunk. Both may reference
// {title}, {url} and {content}.
type Templates struct {
	First        string
	Continuation string
}

// DefaultTemplates returns the built-in message templates.
func DefaultTemplates() Templates {
	return Templates{
		First:        DefaultFirstTemplate,
		Continuation: DefaultContinuationTemplate,
	}
}

// Budgets returns the content budgets, in bytes, of the first and the
// continuation messages for a message size ceiling of limit bytes.
func (t Templates) Budgets(title, url string, limit int) (first, next int) {
	first = limit - len(render(t.First, title, url, ""))
	next = limit - len(render(t.Continuation, title, url, ""))
	return first, next
}

// Split splits body into chunks that fit the templates under limit and
// returns the rendered messages.
func (t Templates) Split(title, url, body string, limit int) ([]string, error) {
	first, next := t.Budgets(title, url, limit)
	if first <= 0 || next <= 0 {
		return nil, Errorf(EINVALID, "message templates leave no room for content within %d bytes", limit)
	}
	return t.Render(title, url, SplitChunks(body, first, next)), nil
}

// Render fills the templates with each chunk.
func (t Templates) Render(title, url string, chunks []string) []string {
	messages := make([]string, len(chunks))
	for i, chunk := range chunks {
		tmpl := t.Continuation
		if i == 0 {
			tmpl = t.First
		}
		messages[i] = render(tmpl, title, url, strings.TrimSpace(chunk))
	}
	return messages
}

func render(tmpl, title, url, content string) string {
	return strings.NewReplacer(
		PlaceholderTitle, title,
		PlaceholderURL, url,
		PlaceholderContent, content,
	).Replace(tmpl)
}
