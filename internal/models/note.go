// Package models defines the domain types for notepad.
package models

import "slices"

// Note categories. The store keeps category as free text; these are the values
// clients are expected to offer.
const (
	CategoryGeneral  = "General"
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryIdeas    = "Ideas"
)

// DefaultTitle is stored when a note is inserted without a title.
const DefaultTitle = "Untitled"

// Categories lists the known categories in display order.
var Categories = []string{CategoryGeneral, CategoryWork, CategoryPersonal, CategoryIdeas}

// Note is a snapshot of one row of the notes table. Timestamps are epoch
// milliseconds.
type Note struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	CreatedAt  int64  `json:"created_at"`
	ModifiedAt int64  `json:"modified_at"`
	Category   string `json:"category"`
}

// LiveFolderItem is the lightweight {id, name} listing used by shells that
// do not need the full note.
type LiveFolderItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	return slices.Contains(Categories, c)
}
