// internal/gateway/proxy.go
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bookreview/internal/envelope"
)

// Resolver maps a logical service name to a base URL.
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// Route sends requests under Prefix to Service.
type Route struct {
	Prefix  string
	Service string
}

// DefaultRoutes covers the public API of every service.
var DefaultRoutes = []Route{
	{Prefix: "/api/v1/books", Service: "books"},
	{Prefix: "/api/v1/users", Service: "users"},
	{Prefix: "/api/v1/reviews", Service: "reviews"},
}

// Proxy forwards requests to whichever instance the resolver picks.
type Proxy struct {
	resolver  Resolver
	transport http.RoundTripper
	logger    zerolog.Logger
}

type targetKey struct{}

func NewProxy(resolver Resolver, transport http.RoundTripper, logger zerolog.Logger) *Proxy {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Proxy{
		resolver:  resolver,
		transport: transport,
		logger:    logger.With().Str("component", "gateway").Logger(),
	}
}

// Routes mounts every route on r.
func (p *Proxy) Routes(r chi.Router, routes []Route) {
	for _, rt := range routes {
		h := p.Handler(rt.Service)
		r.Handle(rt.Prefix, h)
		r.Handle(rt.Prefix+"/*", h)
	}
}

// Handler proxies requests to service, keeping the request path unchanged.
// The upstream is resolved per request.
func (p *Proxy) Handler(service string) http.Handler {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(pr.In.Context().Value(targetKey{}).(*url.URL))
			pr.SetXForwarded()
		},
		Transport:    p.transport,
		ErrorHandler: p.errorHandler(service),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base, err := p.resolver.Resolve(r.Context(), service)
		if err != nil {
			p.logger.Error().Err(err).Str("service", service).Msg("no upstream available")
			envelope.Fail(w, http.StatusBadGateway, "", "upstream service unavailable")
			return
		}

		target, err := parseUpstream(base)
		if err != nil {
			p.logger.Error().Err(err).Str("service", service).Str("target", base).Msg("invalid upstream URL")
			envelope.Fail(w, http.StatusBadGateway, "", "upstream service unavailable")
			return
		}
		rp.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), targetKey{}, target)))
	})
}

func parseUpstream(base string) (*url.URL, error) {
	target, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("upstream URL must be absolute")
	}
	return target, nil
}

func (p *Proxy) errorHandler(service string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if errors.Is(err, context.Canceled) {
			// client went away
			return
		}
		p.logger.Error().Err(err).
			Str("service", service).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("proxy error")
		envelope.Fail(w, http.StatusBadGateway, "", "upstream service unavailable")
	}
}
