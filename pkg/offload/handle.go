package offload

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const resourcesSegment = "resources/"

// NewHandle allocates a resource ID and its URI under scheme.
func NewHandle(scheme string) (id, uri string) {
	id = uuid.NewString()
	return id, FormatHandle(scheme, id)
}

// FormatHandle builds the URI for id under scheme.
func FormatHandle(scheme, id string) string {
	return scheme + "://" + resourcesSegment + id
}

// ParseHandle extracts the resource ID from a handle. A bare UUID is
// accepted as well as a full URI of any scheme.
func ParseHandle(handle string) (string, error) {
	raw := handle
	if _, rest, ok := strings.Cut(handle, "://"); ok {
		id, found := strings.CutPrefix(rest, resourcesSegment)
		if !found {
			return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
		}
		raw = id
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return id.String(), nil
}
