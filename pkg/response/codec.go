package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"mercator-hq/callisto/pkg/processing/insights"

	"github.com/fxamacker/cbor/v2"
)

// Cached responses are CBOR with deterministic encoding so identical
// responses produce identical cache values.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("response: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("response: CBOR decoder initialization failed: " + err.Error())
	}
}

// cachedResponse is the cache representation of a Response. Data is kept
// as JSON so json.Number values survive the round trip.
type cachedResponse struct {
	Content  string             `cbor:"content"`
	Data     []byte             `cbor:"data,omitempty"`
	Insights []insights.Insight `cbor:"insights,omitempty"`
	Actions  []insights.Action  `cbor:"actions,omitempty"`
	Meta     Meta               `cbor:"meta"`
}

func encodeResponse(r *Response) ([]byte, error) {
	c := cachedResponse{
		Content:  r.Content,
		Insights: r.Insights,
		Actions:  r.Actions,
		Meta:     r.Meta,
	}
	if r.Data != nil {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response data: %w", err)
		}
		c.Data = data
	}
	return encMode.Marshal(c)
}

func decodeResponse(b []byte) (*Response, error) {
	var c cachedResponse
	if err := decMode.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cached response: %w", err)
	}

	r := &Response{
		Content:  c.Content,
		Insights: c.Insights,
		Actions:  c.Actions,
		Meta:     c.Meta,
	}
	if len(c.Data) > 0 {
		data, err := decodeJSON(c.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cached response data: %w", err)
		}
		r.Data = data
	}
	return r, nil
}

// decodeJSON decodes b into a JSON tree, keeping numbers as json.Number.
func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
