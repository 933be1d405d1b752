package vsm

// Document is the single capability the model requires of stored items:
// extracting the text to index. Implementations decide what "text" means
// for them (file contents, title plus body, the visible text of an HTML
// page). The model calls Text exactly once per document, at build time,
// and otherwise treats the value as an opaque handle for result
// attribution.
type Document interface {
	Text() string
}

// StringDocument adapts a raw string to the Document interface.
type StringDocument string

// Text returns the string itself.
func (d StringDocument) Text() string { return string(d) }
