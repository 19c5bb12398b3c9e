// Package canillita turns news article links into size-bounded messages.
// It fetches a linked document, extracts the article with per-origin
// rulesets, rejects low-value extractions, formats and splits the text,
// and delivers it to a posting channel at most once per item.
//
// This package contains domain types, interfaces and the pure parts of
// the pipeline (quality checks, formatting and splitting). Implementations
// of the interfaces live in subdirectories named after their primary
// dependency (e.g., sqlite/, goquery/, trafilatura/).
package canillita
