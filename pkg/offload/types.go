package offload

import (
	"context"
	"time"
)

// ContentTypeJSON is the content type of payloads written by the builder.
const ContentTypeJSON = "application/json"

// Resource is a stored payload.
type Resource struct {
	// ID is the resource UUID. Assigned by Persist when empty.
	ID string `json:"id"`

	// URI is the handle returned to callers.
	URI string `json:"uri"`

	// Tool is the name of the tool that produced the payload.
	Tool string `json:"tool,omitempty"`

	// ContentType describes Data.
	ContentType string `json:"content_type,omitempty"`

	// Data is the uncompressed payload.
	Data []byte `json:"-"`

	// Size is len(Data).
	Size int64 `json:"size"`

	// CreatedAt is set by Persist when zero.
	CreatedAt time.Time `json:"created_at"`
}

// clone returns a deep copy of r.
func (r *Resource) clone() *Resource {
	c := *r
	c.Data = append([]byte(nil), r.Data...)
	return &c
}

// Store persists and retrieves offloaded resources. Implementations are
// safe for concurrent use.
type Store interface {
	// Persist stores res and returns its handle.
	Persist(ctx context.Context, res *Resource) (string, error)

	// Retrieve returns the resource for handle, or ErrNotFound.
	Retrieve(ctx context.Context, handle string) (*Resource, error)

	// Delete removes the resource for handle. Returns ErrNotFound if absent.
	Delete(ctx context.Context, handle string) error

	// Prune removes resources created before olderThan and returns how many
	// were removed.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Page is a byte window of a stored payload.
type Page struct {
	URI    string `json:"uri"`
	Offset int64  `json:"offset"`
	Limit  int64  `json:"limit"`
	Total  int64  `json:"total"`
	More   bool   `json:"more"`
	Data   []byte `json:"data"`
}
