// Package source loads the document corpus the model is built from.
// A Source produces the full collection in a stable order; the serving
// layer turns it into an immutable model and asks again only when the
// underlying data changes.
package source

import "context"

// Document is one corpus entry. It satisfies the model's document
// contract: text extraction concatenates title and body.
type Document struct {
	ID    string
	Title string
	Body  string
}

// Text returns the searchable text of the document.
func (d Document) Text() string {
	if d.Title == "" {
		return d.Body
	}
	return d.Title + " " + d.Body
}

// Source is a corpus provider.
type Source interface {
	// Name identifies the source in logs and stats.
	Name() string
	// Load returns every document. Two calls against unchanged data
	// return the same documents in the same order.
	Load(ctx context.Context) ([]Document, error)
}
