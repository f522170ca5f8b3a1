// Package resource resolves opaque resource identifiers such as "notes/5"
// into scopes the record store can execute against.
package resource

import "strconv"

// Kind identifies what a scope addresses.
type Kind int

const (
	KindCollection Kind = iota + 1
	KindItem
	KindLiveFolder
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindItem:
		return "item"
	case KindLiveFolder:
		return "live_folder"
	default:
		return "unknown"
	}
}

// Canonical identifiers.
const (
	NotesPath      = "notes"
	LiveFolderPath = "live_folder/notes"
)

// Scope is a resolved reference to the whole collection, one note, or the
// read-only live folder view.
type Scope struct {
	Kind Kind
	ID   int64 // set only for KindItem
}

// Collection returns the collection scope.
func Collection() Scope { return Scope{Kind: KindCollection} }

// Item returns the single-note scope for id.
func Item(id int64) Scope { return Scope{Kind: KindItem, ID: id} }

// LiveFolder returns the live folder scope.
func LiveFolder() Scope { return Scope{Kind: KindLiveFolder} }

// URI renders the canonical identifier of the scope.
func (s Scope) URI() string {
	switch s.Kind {
	case KindItem:
		return ItemURI(s.ID)
	case KindLiveFolder:
		return LiveFolderPath
	default:
		return NotesPath
	}
}

// Writable reports whether insert/update/delete may target the scope.
func (s Scope) Writable() bool {
	return s.Kind == KindCollection || s.Kind == KindItem
}

// ItemURI builds the identifier of a single note.
func ItemURI(id int64) string {
	return NotesPath + "/" + strconv.FormatInt(id, 10)
}
