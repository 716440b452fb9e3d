package response

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/processing/insights"
	"mercator-hq/callisto/pkg/processing/tokens"
	"mercator-hq/callisto/pkg/response/format"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/tracing"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// RenderFunc renders a document for an environment.
type RenderFunc func(env format.Environment, doc *format.Document) (string, error)

// Builder turns tool results into responses that fit a token budget.
// It is safe for concurrent use.
type Builder struct {
	engine    config.EngineConfig
	reduction config.ReductionConfig
	cacheTTL  time.Duration
	offload   bool

	estimator *tokens.Estimator
	cache     cache.Cache
	store     offload.Store
	detector  format.Detector
	selector  *insights.Selector
	render    RenderFunc
	logger    *slog.Logger
	recorder  Recorder
	tracer    *tracing.Tracer

	flight *singleflight.Group
}

// Option customizes a Builder.
type Option func(*Builder)

// WithEstimator sets the token estimator.
func WithEstimator(e *tokens.Estimator) Option { return func(b *Builder) { b.estimator = e } }

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option { return func(b *Builder) { b.cache = c } }

// WithStore sets the offload store. It is used only when offloading is
// enabled in the configuration.
func WithStore(s offload.Store) Option { return func(b *Builder) { b.store = s } }

// WithDetector sets the environment detector.
func WithDetector(d format.Detector) Option { return func(b *Builder) { b.detector = d } }

// WithSelector sets the insight selector.
func WithSelector(s *insights.Selector) Option { return func(b *Builder) { b.selector = s } }

// WithRenderer replaces format.Render.
func WithRenderer(r RenderFunc) Option { return func(b *Builder) { b.render = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithTracer sets the tracer.
func WithTracer(t *tracing.Tracer) Option { return func(b *Builder) { b.tracer = t } }

// NewBuilder creates a Builder from cfg. Components not supplied through
// options are built from cfg: an in-memory cache when caching is enabled
// and an in-memory store when offloading is enabled. A nil cfg uses the
// defaults.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	b := &Builder{
		engine:    cfg.Engine,
		reduction: cfg.Reduction,
		cacheTTL:  cfg.Cache.DefaultTTL,
		offload:   cfg.Offload.Enabled,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "response.builder")
	if b.estimator == nil {
		b.estimator = tokens.NewEstimator(&cfg.Tokens, b.logger)
	}
	if b.cache == nil {
		if cfg.Cache.Enabled {
			b.cache = cache.NewMemoryCache(&cfg.Cache)
		} else {
			b.cache = cache.NewNoopCache(fmt.Errorf("%w: disabled by configuration", cache.ErrUnavailable))
		}
	}
	if b.store == nil && b.offload {
		b.store = offload.NewMemoryStore(cfg.Offload.URIScheme)
	}
	if b.detector == nil {
		b.detector = format.NewDetector(&cfg.Format)
	}
	if b.selector == nil {
		b.selector = insights.NewSelector(&cfg.Insights, b.estimator)
	}
	if b.render == nil {
		b.render = format.Render
	}
	if b.recorder == nil {
		b.recorder = noopRecorder{}
	}
	if b.tracer == nil {
		b.tracer = tracing.Noop()
	}
	if b.engine.SingleFlight {
		b.flight = &singleflight.Group{}
	}
	return b
}

// Estimator returns the token estimator.
func (b *Builder) Estimator() *tokens.Estimator { return b.estimator }

// Cache returns the response cache.
func (b *Builder) Cache() cache.Cache { return b.cache }

// Store returns the offload store, or nil when offloading is disabled.
func (b *Builder) Store() offload.Store {
	if !b.offload {
		return nil
	}
	return b.store
}

// fingerprintKey is what identifies a cacheable build.
type fingerprintKey struct {
	Params      map[string]any `json:"params"`
	Budget      int            `json:"budget"`
	Environment string         `json:"environment"`
}

// Build invokes tool unless an identical request is cached and shapes the
// result to fit req.Budget. Errors returned by the tool are returned
// unchanged.
func (b *Builder) Build(ctx context.Context, req Request, tool Tool) (resp *Response, err error) {
	if tool == nil {
		return nil, ErrNilTool
	}
	start := time.Now()

	budget := req.Budget
	if budget <= 0 {
		budget = b.engine.DefaultBudget
	}

	client := req.Client
	if client == "" {
		client = format.ClientFromContext(ctx)
	}
	env, derr := b.detector.Detect(ctx, client)
	if derr != nil {
		b.logger.DebugContext(ctx, "environment detection failed, using plain text", "client", client, "error", derr)
		env = format.Plain
	}

	key, ferr := cache.Fingerprint(tool.Name(), fingerprintKey{
		Params:      req.Params,
		Budget:      budget,
		Environment: env.Name,
	})
	if ferr != nil {
		b.logger.WarnContext(ctx, "parameters cannot be fingerprinted, caching disabled for request", "tool", tool.Name(), "error", ferr)
		key = ""
	}

	ctx = logging.WithTool(ctx, tool.Name())
	ctx = logging.WithClient(ctx, client)
	if key != "" {
		ctx = logging.WithFingerprint(ctx, key)
	}

	ctx, span := b.tracer.Start(ctx, tracing.SpanBuild, tracing.BuildAttributes(tool.Name(), key, client, budget))
	defer func() {
		if resp != nil {
			m := resp.Meta
			tracing.SetOutcome(span, string(m.Path), m.CacheHit, m.Truncated, m.OriginalTokens, m.EstimatedTokens)
			b.recorder.RecordBuild(m.Tool, string(m.Path), time.Since(start), m.OriginalTokens, m.EstimatedTokens)
		}
		tracing.End(span, err)
	}()

	if key != "" {
		if hit, ok := b.lookup(ctx, key); ok {
			return hit, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.flight == nil || key == "" {
		return b.produce(ctx, key, req, tool, budget, env)
	}

	v, err, shared := b.flight.Do(key, func() (any, error) {
		return b.produce(ctx, key, req, tool, budget, env)
	})
	if err != nil {
		return nil, err
	}
	r := v.(*Response)
	if shared {
		b.logger.DebugContext(ctx, "joined in-flight build")
		return r.clone(), nil
	}
	return r, nil
}

// lookup returns the cached response for key. Entries that cannot be
// decoded are removed.
func (b *Builder) lookup(ctx context.Context, key string) (*Response, bool) {
	data, ok := b.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	r, err := decodeResponse(data)
	if err != nil {
		b.logger.WarnContext(ctx, "discarding undecodable cache entry", "error", err)
		b.cache.Remove(ctx, key)
		return nil, false
	}
	r.Meta.CacheHit = true
	r.Meta.Path = PathCache
	return r, true
}

// produce computes, shapes and caches a response.
func (b *Builder) produce(ctx context.Context, key string, req Request, tool Tool, budget int, env format.Environment) (*Response, error) {
	raw, err := b.execute(ctx, tool, req.Params)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := b.shape(ctx, tool.Name(), raw, req, budget, env)
	resp.Meta.Fingerprint = key

	if key != "" {
		data, err := encodeResponse(resp)
		if err != nil {
			b.logger.WarnContext(ctx, "failed to encode response for cache", "error", err)
		} else {
			b.cache.Set(ctx, key, data, b.cacheTTL)
		}
	}
	return resp, nil
}

func (b *Builder) execute(ctx context.Context, tool Tool, params map[string]any) (any, error) {
	if b.engine.ComputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.engine.ComputeTimeout)
		defer cancel()
	}

	ctx, span := b.tracer.Start(ctx, tracing.SpanExecute)
	b.logger.DebugContext(ctx, "executing tool", "params", params)
	v, err := tool.Execute(ctx, params)
	tracing.End(span, err)
	return v, err
}

// shape fits a raw result into budget.
func (b *Builder) shape(ctx context.Context, toolName string, raw any, req Request, budget int, env format.Environment) *Response {
	tree, encoded := normalize(raw)
	effective := budget - b.engine.ReservedTokens
	if effective < 1 {
		effective = 1
	}

	original := b.estimator.Estimate(tree)
	meta := Meta{
		Tool:           toolName,
		Path:           PathInline,
		Environment:    env.Name,
		Budget:         budget,
		OriginalTokens: original,
	}

	data := tree
	cost := original
	if cost > effective {
		data, cost, meta.Reductions = b.reduceTree(tree, effective, req.Priority)
		if len(meta.Reductions) > 0 {
			meta.Path = PathReduced
			meta.Truncated = reducedAny(meta.Reductions)
		}
	}

	var preview string
	if cost > effective {
		preview = b.overflow(ctx, toolName, tree, encoded, effective, &meta)
		data = nil
	}

	in := insights.Input{
		Tool:         toolName,
		Result:       data,
		Truncated:    meta.Truncated,
		ResourceURI:  meta.ResourceURI,
		ResourceSize: meta.ResourceSize,
	}
	if r, ok := largest(meta.Reductions); ok {
		in.OriginalCount, in.RetainedCount = r.OriginalCount, r.RetainedCount
	}
	sel := b.selector.Select(in, budget*b.engine.InsightBudgetPercent/100)

	doc := &format.Document{
		Title:    toolName,
		Summary:  summary(meta),
		Body:     data,
		Preview:  preview,
		Insights: sel.Insights,
		Actions:  sel.Actions,
	}

	content, err := b.render(env, doc)
	meta.Formatted = err == nil
	if err != nil {
		b.logger.WarnContext(ctx, "rendering failed, returning raw JSON", "environment", env.Name, "error", err)
		content = preview
		if content == "" {
			content = rawJSON(data, encoded)
		}
	}
	meta.EstimatedTokens = b.estimator.EstimateText(content)

	b.logger.DebugContext(ctx, "response built",
		"path", meta.Path,
		"original_tokens", meta.OriginalTokens,
		"estimated_tokens", meta.EstimatedTokens,
		"truncated", meta.Truncated,
	)

	return &Response{
		Content:  content,
		Data:     data,
		Insights: sel.Insights,
		Actions:  sel.Actions,
		Meta:     meta,
	}
}

// overflow handles a result that does not fit after reduction. The full
// encoding is offloaded and a preview returned; without a store, or when
// persisting fails, a truncated rendering is returned instead.
func (b *Builder) overflow(ctx context.Context, toolName string, tree any, encoded []byte, effective int, meta *Meta) string {
	text := indent(tree)
	cpt := b.estimator.CharsPerToken()
	meta.Truncated = true

	store := b.Store()
	if store == nil {
		meta.Path = PathTruncated
		return truncateText(text, effective*cpt)
	}

	uri, err := b.persist(ctx, store, toolName, encoded)
	if err != nil {
		b.logger.WarnContext(ctx, "offload failed, returning truncated content", "error", err)
		meta.Path = PathTruncated
		meta.OffloadFailed = true
		return truncateText(text, min(b.engine.PreviewTokens, effective)*cpt)
	}

	meta.Path = PathOffload
	meta.ResourceAvailable = true
	meta.ResourceURI = uri
	meta.ResourceSize = int64(len(encoded))
	return truncateText(text, min(b.engine.PreviewTokens, effective)*cpt)
}

func (b *Builder) persist(ctx context.Context, store offload.Store, toolName string, encoded []byte) (uri string, err error) {
	ctx, span := b.tracer.Start(ctx, tracing.SpanPersist)
	defer func() {
		if err == nil {
			tracing.SetResource(span, uri, int64(len(encoded)))
		}
		tracing.End(span, err)
	}()

	uri, err = store.Persist(ctx, &offload.Resource{
		Tool:        toolName,
		ContentType: offload.ContentTypeJSON,
		Data:        encoded,
	})
	b.recorder.RecordOffload(err == nil, int64(len(encoded)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOffload, err)
	}
	return uri, nil
}

// rawJSON encodes the reduced tree, falling back to the original encoding.
func rawJSON(data any, encoded []byte) string {
	if out, err := json.Marshal(data); err == nil {
		return string(out)
	}
	return string(encoded)
}

func reducedAny(rs []Reduction) bool {
	for _, r := range rs {
		if r.RetainedCount < r.OriginalCount || r.Forced {
			return true
		}
	}
	return false
}

func largest(rs []Reduction) (Reduction, bool) {
	if len(rs) == 0 {
		return Reduction{}, false
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.OriginalCount > best.OriginalCount {
			best = r
		}
	}
	return best, true
}

func summary(m Meta) string {
	switch m.Path {
	case PathReduced:
		if r, ok := largest(m.Reductions); ok {
			return fmt.Sprintf("Showing %d of %d items.", r.RetainedCount, r.OriginalCount)
		}
	case PathOffload:
		return fmt.Sprintf("Result too large (%s); preview shown, full content at %s.",
			humanize.Bytes(uint64(m.ResourceSize)), m.ResourceURI)
	case PathTruncated:
		return "Result too large; content truncated."
	}
	return ""
}
