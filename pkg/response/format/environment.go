package format

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mercator-hq/callisto/pkg/config"
)

// ErrUndetected is returned when no detector recognizes the client.
var ErrUndetected = errors.New("client environment not detected")

// Environment describes what the receiving client can display.
type Environment struct {
	Name        string `json:"name" cbor:"name"`
	RichMarkup  bool   `json:"rich_markup" cbor:"rich_markup"`
	Interactive bool   `json:"interactive" cbor:"interactive"`
}

// Built-in environments.
var (
	Plain    = Environment{Name: "plain"}
	Markdown = Environment{Name: "markdown", RichMarkup: true}
	Rich     = Environment{Name: "rich", RichMarkup: true, Interactive: true}
)

// KnownClients maps client names to the environment they render.
var KnownClients = map[string]Environment{
	"claude-desktop": Markdown,
	"claude-code":    Markdown,
	"vscode":         Markdown,
	"cursor":         Markdown,
	"windsurf":       Markdown,
	"zed":            Markdown,
	"web":            Rich,
	"browser":        Rich,
	"cli":            Plain,
	"terminal":       Plain,
}

// Lookup resolves an environment or client name, case-insensitively.
func Lookup(name string) (Environment, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case Plain.Name:
		return Plain, true
	case Markdown.Name:
		return Markdown, true
	case Rich.Name:
		return Rich, true
	}
	env, ok := KnownClients[name]
	return env, ok
}

// Detector resolves the environment for a request. client is the client
// name supplied with the request and may be empty.
type Detector interface {
	Detect(ctx context.Context, client string) (Environment, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, client string) (Environment, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, client string) (Environment, error) {
	return f(ctx, client)
}

type clientKey struct{}

// WithClient returns a context carrying the client name.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the client name stored by WithClient.
func ClientFromContext(ctx context.Context) string {
	client, _ := ctx.Value(clientKey{}).(string)
	return client
}

// Static always returns env.
func Static(env Environment) Detector {
	return DetectorFunc(func(context.Context, string) (Environment, error) {
		return env, nil
	})
}

// Client resolves the request's client name, falling back to the name in
// the context.
func Client() Detector {
	return DetectorFunc(func(ctx context.Context, client string) (Environment, error) {
		if client == "" {
			client = ClientFromContext(ctx)
		}
		if client == "" {
			return Environment{}, ErrUndetected
		}
		env, ok := Lookup(client)
		if !ok {
			return Environment{}, fmt.Errorf("%w: unknown client %q", ErrUndetected, client)
		}
		return env, nil
	})
}

// EnvVar resolves the client name held in the named environment variable.
func EnvVar(name string) Detector {
	return envVarDetector{name: name, lookup: os.LookupEnv}
}

type envVarDetector struct {
	name   string
	lookup func(string) (string, bool)
}

func (d envVarDetector) Detect(context.Context, string) (Environment, error) {
	val, ok := d.lookup(d.name)
	if !ok || val == "" {
		return Environment{}, ErrUndetected
	}
	env, found := Lookup(val)
	if !found {
		return Environment{}, fmt.Errorf("%w: unknown client %q in %s", ErrUndetected, val, d.name)
	}
	return env, nil
}

// Chain returns the first environment any detector resolves.
func Chain(detectors ...Detector) Detector {
	return DetectorFunc(func(ctx context.Context, client string) (Environment, error) {
		var errs []error
		for _, d := range detectors {
			env, err := d.Detect(ctx, client)
			if err == nil {
				return env, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return Environment{}, ErrUndetected
		}
		return Environment{}, errors.Join(errs...)
	})
}

// NewDetector builds the standard detection chain from cfg. A nil cfg
// uses the defaults.
func NewDetector(cfg *config.FormatConfig) Detector {
	if cfg == nil {
		cfg = &config.NewDefaultConfig().Format
	}

	detectors := []Detector{Client()}
	if cfg.ClientEnvVar != "" {
		detectors = append(detectors, EnvVar(cfg.ClientEnvVar))
	}
	if env, ok := Lookup(cfg.DefaultEnvironment); ok {
		detectors = append(detectors, Static(env))
	}
	return Chain(detectors...)
}
