package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

func newTestServer(t *testing.T, store offload.Store) (*Server, *metrics.Collector) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Server.MaxBodyBytes = 1024
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	srv := New(&cfg.Server, "/metrics", Deps{
		Store:   store,
		Metrics: collector,
		Logger:  logging.Discard(),
		Version: "1.2.3",
	})
	return srv, collector
}

func persist(t *testing.T, store offload.Store, data string) string {
	t.Helper()
	uri, err := store.Persist(context.Background(), &offload.Resource{
		Tool:        "search",
		ContentType: offload.ContentTypeJSON,
		Data:        []byte(data),
	})
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	id, err := offload.ParseHandle(uri)
	if err != nil {
		t.Fatalf("ParseHandle(%q) error = %v", uri, err)
	}
	return id
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProbes(t *testing.T) {
	srv, _ := newTestServer(t, offload.NewMemoryStore(""))

	tests := []struct {
		target string
		want   int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/version", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("GET %s status = %d, want %d", tt.target, rec.Code, tt.want)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header not set")
			}
		})
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	checker := health.New(time.Second)
	checker.Register("store", func(ctx context.Context) error { return errors.New("down") })

	srv := New(nil, "", Deps{Health: checker, Logger: logging.Discard()})
	rec := do(t, srv.Handler(), http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestVersion(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/version", "")

	var info health.VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", info.Version)
	}
}

func TestEstimate(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"object", `{"name":"abcdefgh","items":[1,2,3]}`, http.StatusOK},
		{"invalid json", `{"name":`, http.StatusBadRequest},
		{"too large", `"` + strings.Repeat("x", 2048) + `"`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/v1/estimate", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			var resp EstimateResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Tokens <= 0 {
				t.Errorf("Tokens = %d, want > 0", resp.Tokens)
			}
			if resp.Bytes != int64(len(tt.body)) {
				t.Errorf("Bytes = %d, want %d", resp.Bytes, len(tt.body))
			}
			if resp.CharsPerToken != config.DefaultCharsPerToken {
				t.Errorf("CharsPerToken = %d", resp.CharsPerToken)
			}
		})
	}
}

func TestEstimateRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/estimate", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestGetResourcePages(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	id := persist(t, store, `{"items":[{"id":1},{"id":2}]}`)

	tests := []struct {
		name     string
		query    string
		wantData string
		wantMore bool
	}{
		{"whole", "", `{"items":[{"id":1},{"id":2}]}`, false},
		{"first page", "?offset=0&limit=10", `{"items":[`, true},
		{"past end", "?offset=1000", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, "/v1/resources/"+id+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var page ResourcePage
			if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if page.Data != tt.wantData {
				t.Errorf("Data = %q, want %q", page.Data, tt.wantData)
			}
			if page.More != tt.wantMore {
				t.Errorf("More = %v, want %v", page.More, tt.wantMore)
			}
			if page.Total != 29 {
				t.Errorf("Total = %d, want 29", page.Total)
			}
		})
	}
}

func TestGetResourcePagesJoinMultibyte(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	payload := `{"name":"café","city":"東京"}`
	id := persist(t, store, payload)

	var joined strings.Builder
	var offset int64
	for range 100 {
		target := fmt.Sprintf("/v1/resources/%s?offset=%d&limit=12", id, offset)
		rec := do(t, srv.Handler(), http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var page ResourcePage
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("decode: %v", err)
		}
		joined.WriteString(page.Data)
		offset += page.Limit
		if !page.More {
			break
		}
	}
	if joined.String() != payload {
		t.Errorf("joined pages = %q, want %q", joined.String(), payload)
	}
}

func TestGetResourceHugeLimit(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	id := persist(t, store, `{"items":[{"id":1}]}`)

	rec := do(t, srv.Handler(), http.MethodGet, "/v1/resources/"+id+"?offset=1&limit=9223372036854775807", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGetResourceQuery(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	id := persist(t, store, `{"items":[{"id":1},{"id":2}]}`)

	rec := do(t, srv.Handler(), http.MethodGet, "/v1/resources/"+id+"?path=items.1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"id":2}` {
		t.Errorf("body = %s, want {\"id\":2}", got)
	}
}

func TestResourceErrors(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	jsonID := persist(t, store, `{"a":1}`)
	textID := persist(t, store, "plain text")

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"unknown id", "/v1/resources/6f1c1f63-36a4-4a38-9d3c-3c8b7c64b2a1", http.StatusNotFound, "not_found"},
		{"invalid handle", "/v1/resources/not-a-uuid", http.StatusBadRequest, "invalid_handle"},
		{"missing path", "/v1/resources/" + jsonID + "?path=b", http.StatusNotFound, "path_not_found"},
		{"not json", "/v1/resources/" + textID + "?path=a", http.StatusUnprocessableEntity, "not_json"},
		{"negative offset", "/v1/resources/" + jsonID + "?offset=-1", http.StatusBadRequest, "invalid_offset"},
		{"bad limit", "/v1/resources/" + jsonID + "?limit=ten", http.StatusBadRequest, "invalid_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, tt.target, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantErr)
			}
		})
	}
}

func TestDeleteResource(t *testing.T) {
	store := offload.NewMemoryStore("")
	srv, _ := newTestServer(t, store)
	id := persist(t, store, `{"a":1}`)

	if rec := do(t, srv.Handler(), http.MethodDelete, "/v1/resources/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("first delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := do(t, srv.Handler(), http.MethodDelete, "/v1/resources/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d, want 0", store.Len())
	}
}

func TestResourceRoutesDisabledWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/resources/6f1c1f63-36a4-4a38-9d3c-3c8b7c64b2a1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	do(t, srv.Handler(), http.MethodGet, "/health", "")

	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
	if !strings.Contains(body, `route="GET /health"`) {
		t.Error("metrics output missing the /health route label")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	target := "http://" + ln.Addr().String() + "/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(target)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if srv.Addr() == "" {
		t.Error("Addr() is empty while serving")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
