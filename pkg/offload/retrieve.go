package offload

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// RetrieveRange returns up to limit bytes of the payload starting at offset.
// A limit of zero or less returns the remainder. A page never ends inside a
// UTF-8 sequence, so Page.Limit reports the bytes actually returned and the
// next page starts at Offset+Limit.
func RetrieveRange(ctx context.Context, store Store, handle string, offset, limit int64) (*Page, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative, got %d", offset)
	}

	res, err := store.Retrieve(ctx, handle)
	if err != nil {
		return nil, err
	}

	total := int64(len(res.Data))
	page := &Page{
		URI:    res.URI,
		Offset: offset,
		Total:  total,
	}
	if offset >= total {
		page.Data = []byte{}
		return page, nil
	}

	end := total
	if limit > 0 && limit < total-offset {
		end = runeBoundary(res.Data, offset, offset+limit)
	}
	page.Data = res.Data[offset:end]
	page.Limit = end - offset
	page.More = end < total
	return page, nil
}

// runeBoundary moves end back to the start of a UTF-8 sequence. When the
// window holds less than one rune it grows to include the whole rune.
func runeBoundary(data []byte, start, end int64) int64 {
	for e := end; e > start; e-- {
		if utf8.RuneStart(data[e]) {
			return e
		}
	}
	end = start + 1
	for end < int64(len(data)) && !utf8.RuneStart(data[end]) {
		end++
	}
	return end
}

// Query evaluates a gjson path against a JSON payload and returns the raw
// JSON of the match.
func Query(ctx context.Context, store Store, handle, path string) ([]byte, error) {
	res, err := store.Retrieve(ctx, handle)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(res.Data) {
		return nil, fmt.Errorf("%w: %s", ErrNotJSON, res.URI)
	}

	match := gjson.GetBytes(res.Data, path)
	if !match.Exists() {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	return []byte(match.Raw), nil
}
