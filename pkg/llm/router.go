package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Router resolves the provider for an operation from the runtime routing
// settings and performs at most one retry on the alternate provider.
// Step handlers never retry themselves; this is the only retry layer.
type Router struct {
	mu        sync.RWMutex
	providers map[models.ProviderName]Provider
	logger    *slog.Logger
}

// NewRouter creates an empty provider router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		providers: make(map[models.ProviderName]Provider),
		logger:    logger.With("component", "llm_router"),
	}
}

// Register binds a provider to a routing name, replacing any previous
// binding. Names follow the runtime settings vocabulary: primary,
// fallback, stub.
func (r *Router) Register(name models.ProviderName, p Provider) {
	if p == nil {
		panic("llm: Register called with nil provider")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Reset drops all registered providers. Test hook.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[models.ProviderName]Provider)
}

// Provider returns the provider registered under name.
func (r *Router) Provider(name models.ProviderName) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// RouteFor returns the provider name the routing settings assign to op.
func RouteFor(op Operation, routing models.ProviderRouting) models.ProviderName {
	var name models.ProviderName
	switch op {
	case OpDetect, OpIntent:
		name = routing.IntentProvider
	case OpEntity:
		name = routing.EntityProvider
	case OpVerbalize:
		name = routing.VerbalizationProvider
	}
	if name == "" {
		name = models.ProviderPrimary
	}
	return name
}

// alternate returns the one retry target for a failed provider. The stub
// is deterministic and local, so it has no alternate.
func alternate(name models.ProviderName) models.ProviderName {
	switch name {
	case models.ProviderPrimary:
		return models.ProviderFallback
	case models.ProviderFallback:
		return models.ProviderPrimary
	default:
		return ""
	}
}

// Complete runs the request on the provider routing assigns to req.Op.
// On failure it retries exactly once on the alternate provider, unless
// the failure is critical (auth, billing), which surfaces verbatim.
func (r *Router) Complete(ctx context.Context, routing models.ProviderRouting, req Request) (Response, error) {
	name := RouteFor(req.Op, routing)

	resp, err := r.completeOn(ctx, name, req)
	if err == nil {
		return resp, nil
	}
	if Critical(err) {
		return Response{}, err
	}
	if ctx.Err() != nil {
		return Response{}, err
	}

	alt := alternate(name)
	if alt == "" {
		return Response{}, err
	}
	if _, ok := r.Provider(alt); !ok {
		return Response{}, err
	}

	fallbacksTotal.WithLabelValues(string(req.Op)).Inc()
	r.logger.Warn("provider fallback",
		"operation", req.Op,
		"from", name,
		"to", alt,
		"error", err)

	resp, altErr := r.completeOn(ctx, alt, req)
	if altErr != nil {
		return Response{}, fmt.Errorf("fallback %s failed after %s: %w", alt, name, altErr)
	}
	return resp, nil
}

func (r *Router) completeOn(ctx context.Context, name models.ProviderName, req Request) (Response, error) {
	p, ok := r.Provider(name)
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrProviderNotRegistered, name)
	}

	resp, err := p.Complete(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	completionsTotal.WithLabelValues(string(req.Op), p.Name(), outcome).Inc()
	if err != nil {
		return Response{}, fmt.Errorf("provider %s: %w", p.Name(), err)
	}
	if resp.Text == "" {
		completionsTotal.WithLabelValues(string(req.Op), p.Name(), "empty").Inc()
		return Response{}, fmt.Errorf("provider %s: %w", p.Name(), ErrEmptyCompletion)
	}
	return resp, nil
}
