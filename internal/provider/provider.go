// Package provider is the entry point external callers use to address notes
// by resource identifier. It resolves the identifier, runs the store
// operation and publishes the resulting change.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/export"
	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/notify"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/store"
)

// Provider sequences router, store, notifier and exporter.
type Provider struct {
	router   *resource.Router
	store    *store.Store
	notifier *notify.Notifier
	logger   *slog.Logger
}

// New creates a provider. All dependencies are required.
func New(router *resource.Router, st *store.Store, n *notify.Notifier, logger *slog.Logger) *Provider {
	return &Provider{router: router, store: st, notifier: n, logger: logger}
}

// Ping reports whether the backing database is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// Type returns the content type of the data uri addresses.
func (p *Provider) Type(uri string) (string, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return "", err
	}
	return p.router.Type(scope)
}

// Query runs a read against uri. See store.Store.Query for the meaning of
// the remaining arguments.
func (p *Provider) Query(ctx context.Context, uri string, projection []string, filter string, args []any, sort string) (*store.ResultSet, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return nil, err
	}
	return p.store.Query(ctx, scope, projection, filter, args, sort)
}

// Get returns one full note, or apperr.ErrNotFound.
func (p *Provider) Get(ctx context.Context, id int64) (models.Note, error) {
	return p.store.Get(ctx, id)
}

// Insert adds a note through the collection identifier and returns its id.
func (p *Provider) Insert(ctx context.Context, uri string, v store.Values) (int64, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return 0, err
	}
	id, err := p.store.Insert(ctx, scope, v)
	if err != nil {
		return 0, err
	}
	item := resource.Item(id)
	p.notifier.Publish(notify.Change{
		URI:   item.URI(),
		Kind:  notify.Inserted,
		Scope: item,
		IDs:   []int64{id},
	})
	return id, nil
}

// Update applies v to the rows uri addresses that also match filter and
// returns how many were changed.
func (p *Provider) Update(ctx context.Context, uri string, v store.Values, filter string, args []any) (int64, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return 0, err
	}
	m, err := p.store.Update(ctx, scope, v, filter, args)
	if err != nil {
		return 0, err
	}
	p.publish(scope, notify.Updated, m)
	return m.Count, nil
}

// Delete removes the rows uri addresses that also match filter and returns
// how many were removed.
func (p *Provider) Delete(ctx context.Context, uri string, filter string, args []any) (int64, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return 0, err
	}
	m, err := p.store.Delete(ctx, scope, filter, args)
	if err != nil {
		return 0, err
	}
	p.publish(scope, notify.Deleted, m)
	return m.Count, nil
}

// publish announces a successful update or delete, including one that
// touched no rows.
func (p *Provider) publish(scope resource.Scope, kind notify.Kind, m store.Mutation) {
	p.notifier.Publish(notify.Change{
		URI:   scope.URI(),
		Kind:  kind,
		Scope: scope,
		IDs:   m.IDs,
	})
	if m.Count == 0 {
		p.logger.Debug("provider: mutation matched no rows",
			slog.String("uri", scope.URI()),
			slog.String("kind", string(kind)))
	}
}

// Subscribe registers an observer for uri.
func (p *Provider) Subscribe(uri string, descendants bool) (*notify.Subscription, error) {
	return p.notifier.Subscribe(uri, descendants)
}

// StreamTypes returns the stream MIME types uri can be exported as.
func (p *Provider) StreamTypes(uri, mimeFilter string) ([]string, error) {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return nil, err
	}
	return export.StreamTypes(scope, mimeFilter), nil
}

// Export writes the plain text rendering of the note uri addresses to w.
func (p *Provider) Export(ctx context.Context, uri string, w io.Writer) error {
	scope, err := p.router.Resolve(uri)
	if err != nil {
		return err
	}
	if scope.Kind != resource.KindItem {
		return fmt.Errorf("provider: export %s: %w", scope.URI(), apperr.ErrUnknownResource)
	}

	rs, err := p.store.Query(ctx, scope, []string{resource.FieldTitle, resource.FieldBody}, "", nil, "")
	if err != nil {
		return err
	}
	notes := rs.Notes()
	if len(notes) == 0 {
		return fmt.Errorf("provider: export %s: %w", scope.URI(), apperr.ErrNotFound)
	}
	return export.Write(w, notes[0].Title, notes[0].Body)
}

// ExportBytes returns the plain text rendering of the note uri addresses.
func (p *Provider) ExportBytes(ctx context.Context, uri string) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Export(ctx, uri, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
