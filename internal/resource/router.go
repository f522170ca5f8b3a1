package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/notepad/internal/apperr"
)

// Authority is the identifier authority accepted in content:// form.
const Authority = "com.google.provider.NotePad"

// Content types reported by Router.Type.
const (
	ContentType     = "vnd.android.cursor.dir/vnd.google.note"
	ContentItemType = "vnd.android.cursor.item/vnd.google.note"
)

type route struct {
	segments []string
	kind     Kind
}

// Router maps resource identifiers to scopes. It is built once and never
// mutated, so one instance can be shared by any number of goroutines.
type Router struct {
	routes     []route
	notes      *Projection
	liveFolder *Projection
}

// NewRouter builds the routing and projection tables.
func NewRouter() *Router {
	return &Router{
		routes: []route{
			{segments: []string{"notes"}, kind: KindCollection},
			{segments: []string{"notes", "#"}, kind: KindItem},
			{segments: []string{"live_folder", "notes"}, kind: KindLiveFolder},
			{segments: []string{"live_folders", "notes"}, kind: KindLiveFolder},
		},
		notes:      notesProjection(),
		liveFolder: liveFolderProjection(),
	}
}

// Resolve parses uri into a scope. Accepted forms are "notes", "notes/<id>",
// "live_folder/notes", optionally prefixed with "content://<authority>/".
func (r *Router) Resolve(uri string) (Scope, error) {
	segs := splitURI(uri)
	if len(segs) == 0 {
		return Scope{}, fmt.Errorf("resource: %w: %q", apperr.ErrUnknownResource, uri)
	}

	for _, rt := range r.routes {
		if len(rt.segments) != len(segs) {
			continue
		}
		matched := true
		for i, want := range rt.segments {
			if want == "#" {
				continue
			}
			if segs[i] != want {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if rt.kind != KindItem {
			return Scope{Kind: rt.kind}, nil
		}
		id, err := parseID(segs[len(segs)-1])
		if err != nil {
			return Scope{}, fmt.Errorf("resource: %w: %q", apperr.ErrInvalidIdentifier, uri)
		}
		return Item(id), nil
	}
	return Scope{}, fmt.Errorf("resource: %w: %q", apperr.ErrUnknownResource, uri)
}

// Projection returns the field whitelist for a scope.
func (r *Router) Projection(s Scope) (*Projection, error) {
	switch s.Kind {
	case KindCollection, KindItem:
		return r.notes, nil
	case KindLiveFolder:
		return r.liveFolder, nil
	default:
		return nil, fmt.Errorf("resource: %w: scope kind %d", apperr.ErrUnknownResource, s.Kind)
	}
}

// Type returns the content type of the data a scope addresses.
func (r *Router) Type(s Scope) (string, error) {
	switch s.Kind {
	case KindCollection, KindLiveFolder:
		return ContentType, nil
	case KindItem:
		return ContentItemType, nil
	default:
		return "", fmt.Errorf("resource: %w: scope kind %d", apperr.ErrUnknownResource, s.Kind)
	}
}

func splitURI(uri string) []string {
	u := strings.TrimSpace(uri)
	if rest, ok := strings.CutPrefix(u, "content://"); ok {
		// Drop the authority segment.
		_, after, found := strings.Cut(rest, "/")
		if !found {
			return nil
		}
		u = after
	}
	u = strings.Trim(u, "/")
	if u == "" {
		return nil
	}
	return strings.Split(u, "/")
}

// parseID accepts plain decimal digits only; signs and spaces are rejected.
func parseID(seg string) (int64, error) {
	if seg == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(seg, 10, 64)
}
