package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/export"
	"github.com/starford/notepad/internal/provider"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	p *provider.Provider
}

// NewHandler creates a new Handler.
func NewHandler(p *provider.Provider) *Handler {
	return &Handler{p: p}
}

// itemURI builds the identifier for the {id} segment. Validation is left to
// the router so malformed ids surface as InvalidIdentifier.
func itemURI(r *http.Request) string {
	return resource.NotesPath + "/" + chi.URLParam(r, "id")
}

// queryParams reads the projection, filter, filter args and sort order.
func queryParams(r *http.Request) (fields []string, where string, args []any, sort string) {
	q := r.URL.Query()
	if raw := q.Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	for _, a := range q["arg"] {
		args = append(args, a)
	}
	return fields, q.Get("where"), args, q.Get("sort")
}

func decodeValues(w http.ResponseWriter, r *http.Request) (store.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var v NoteValues
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	return store.Values(v), true
}

// ListNotes handles GET /api/notes.
//
//	@Summary		Query the note collection
//	@Tags			notes
//	@Produce		json
//	@Param			fields	query		string	false	"Comma separated field list"
//	@Param			where	query		string	false	"Filter expression with ? placeholders"
//	@Param			arg		query		[]string	false	"Filter arguments, in placeholder order"
//	@Param			sort	query		string	false	"Sort order, e.g. modified_at DESC"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	fields, where, args, sort := queryParams(r)
	rs, err := h.p.Query(r.Context(), resource.NotesPath, fields, where, args, sort)
	if err != nil {
		writeError(w, "list notes", resource.NotesPath, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: rs.Records(), Total: rs.Len()})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id		path		int		true	"Note id"
//	@Param			fields	query		string	false	"Comma separated field list"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	uri := itemURI(r)
	fields, where, args, _ := queryParams(r)
	rs, err := h.p.Query(r.Context(), uri, fields, where, args, "")
	if err != nil {
		writeError(w, "get note", uri, err)
		return
	}
	if rs.Len() == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, rs.Records()[0])
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteValues	true	"Field values; missing fields take defaults"
//	@Success		201		{object}	CreatedResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	v, ok := decodeValues(w, r)
	if !ok {
		return
	}
	id, err := h.p.Insert(r.Context(), resource.NotesPath, v)
	if err != nil {
		writeError(w, "create note", resource.NotesPath, err)
		return
	}
	uri := resource.ItemURI(id)
	w.Header().Set("Location", "/api/"+uri)
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id, URI: uri})
}

// UpdateNotes handles PUT /api/notes.
//
//	@Summary		Update every note matching a filter
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			where	query		string		false	"Filter expression with ? placeholders"
//	@Param			arg		query		[]string	false	"Filter arguments"
//	@Param			body	body		NoteValues	true	"Field values to set"
//	@Success		200		{object}	CountResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [put]
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, resource.NotesPath, false)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a single note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Note id"
//	@Param			body	body		NoteValues	true	"Field values to set"
//	@Success		200		{object}	CountResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, itemURI(r), true)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, uri string, single bool) {
	v, ok := decodeValues(w, r)
	if !ok {
		return
	}
	_, where, args, _ := queryParams(r)
	n, err := h.p.Update(r.Context(), uri, v, where, args)
	if err != nil {
		writeError(w, "update notes", uri, err)
		return
	}
	if single && n == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// DeleteNotes handles DELETE /api/notes.
//
//	@Summary		Delete every note matching a filter
//	@Tags			notes
//	@Produce		json
//	@Param			where	query		string		false	"Filter expression with ? placeholders"
//	@Param			arg		query		[]string	false	"Filter arguments"
//	@Success		200		{object}	CountResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [delete]
func (h *Handler) DeleteNotes(w http.ResponseWriter, r *http.Request) {
	_, where, args, _ := queryParams(r)
	n, err := h.p.Delete(r.Context(), resource.NotesPath, where, args)
	if err != nil {
		writeError(w, "delete notes", resource.NotesPath, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// DeleteNote handles DELETE /api/notes/{id}. Deleting a missing note is not
// an error.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204		"Note deleted"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	uri := itemURI(r)
	if _, err := h.p.Delete(r.Context(), uri, "", nil); err != nil {
		writeError(w, "delete note", uri, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNote handles GET /api/notes/{id}/export.
//
//	@Summary		Export a note as plain text
//	@Tags			notes
//	@Produce		plain
//	@Param			id	path	int	true	"Note id"
//	@Success		200	{string}	string	"title, blank line, body"
//	@Success		304	"Not modified"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [get]
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	uri := itemURI(r)
	data, err := h.p.ExportBytes(r.Context(), uri)
	if err != nil {
		writeError(w, "export note", uri, err)
		return
	}

	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	if checksum.MatchesNoneMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", export.MIMEType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// LiveFolder handles GET /api/live_folder/notes.
//
//	@Summary		List the live folder view (id and name)
//	@Tags			live_folder
//	@Produce		json
//	@Param			sort	query		string	false	"Sort order"
//	@Success		200		{object}	LiveFolderResponse
//	@Security		BearerAuth
//	@Router			/live_folder/notes [get]
func (h *Handler) LiveFolder(w http.ResponseWriter, r *http.Request) {
	fields, where, args, sort := queryParams(r)
	rs, err := h.p.Query(r.Context(), resource.LiveFolderPath, fields, where, args, sort)
	if err != nil {
		writeError(w, "live folder", resource.LiveFolderPath, err)
		return
	}
	writeJSON(w, http.StatusOK, LiveFolderResponse{Items: rs.Records()})
}

// Type handles GET /api/type?uri=notes/5.
//
//	@Summary		Describe a resource identifier
//	@Tags			resources
//	@Produce		json
//	@Param			uri		query		string	true	"Resource identifier"
//	@Param			accept	query		string	false	"Stream MIME filter, default */*"
//	@Success		200		{object}	TypeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/type [get]
func (h *Handler) Type(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uri := q.Get("uri")
	if uri == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'uri' is required"))
		return
	}
	accept := q.Get("accept")
	if accept == "" {
		accept = "*/*"
	}

	typ, err := h.p.Type(uri)
	if err != nil {
		writeError(w, "type", uri, err)
		return
	}
	streams, err := h.p.StreamTypes(uri, accept)
	if err != nil {
		writeError(w, "type", uri, err)
		return
	}
	if streams == nil {
		streams = []string{}
	}
	writeJSON(w, http.StatusOK, TypeResponse{URI: uri, Type: typ, StreamTypes: streams})
}

// Ready handles GET /health/ready; it fails while the database is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.p.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("database unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
