package api

// NoteValues is the request body for creating or updating notes. Only
// title, body and category are accepted; the store manages id and
// timestamps.
type NoteValues map[string]any

// NoteListResponse wraps a collection query. Each record holds the
// requested fields only.
type NoteListResponse struct {
	Notes []map[string]any `json:"notes" validate:"required"`
	Total int              `json:"total" example:"42" validate:"required"`
}

// LiveFolderResponse wraps the live folder view.
type LiveFolderResponse struct {
	Items []map[string]any `json:"items" validate:"required"`
}

// CreatedResponse is returned after a successful insert.
type CreatedResponse struct {
	ID  int64  `json:"id" example:"7" validate:"required"`
	URI string `json:"uri" example:"notes/7" validate:"required"`
}

// CountResponse reports how many notes an update or delete touched.
type CountResponse struct {
	Count int64 `json:"count" example:"3" validate:"required"`
}

// TypeResponse describes what a resource identifier addresses.
type TypeResponse struct {
	URI         string   `json:"uri" example:"notes/7" validate:"required"`
	Type        string   `json:"type" example:"vnd.android.cursor.item/vnd.google.note" validate:"required"`
	StreamTypes []string `json:"stream_types"`
}
