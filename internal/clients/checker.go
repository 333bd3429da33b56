// internal/clients/checker.go
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"bookreview/internal/envelope"
)

// DefaultTimeout bounds a check when WithTimeout is not given.
const DefaultTimeout = 3 * time.Second

// errDependencyFailure is what the breaker counts against a dependency.
var errDependencyFailure = errors.New("dependency failure")

// Resolver maps a logical service name to a base URL.
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Target names the remote service and the resource collection to query.
type Target struct {
	Service  string
	Resource string
}

var (
	BooksTarget = Target{Service: "books", Resource: "/api/v1/books"}
	UsersTarget = Target{Service: "users", Resource: "/api/v1/users"}
)

type options struct {
	client  Doer
	timeout time.Duration
	breaker *BreakerConfig
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// Option configures a Checker.
type Option func(*options)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c Doer) Option {
	return func(o *options) { o.client = c }
}

// WithTimeout bounds each check. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreaker puts a circuit breaker in front of the remote service.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = &cfg }
}

// WithLogger sets the logger used for failed checks.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Checker looks up one kind of entity in a remote service and classifies
// the result. It never retries.
type Checker[T any] struct {
	target   Target
	resolver Resolver
	client   Doer
	timeout  time.Duration
	breaker  *gobreaker.TwoStepCircuitBreaker[struct{}]
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewChecker builds a checker for target.
func NewChecker[T any](target Target, resolver Resolver, opts ...Option) *Checker[T] {
	o := options{
		client:  NewHTTPClient(),
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
		tracer:  otel.Tracer("bookreview/clients"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Checker[T]{
		target:   target,
		resolver: resolver,
		client:   o.client,
		timeout:  o.timeout,
		logger:   o.logger.With().Str("dependency", target.Service).Logger(),
		tracer:   o.tracer,
	}
	if o.breaker != nil {
		c.breaker = newBreaker(*o.breaker, c.logger)
	}
	return c
}

// NewBookChecker checks books in the book service.
func NewBookChecker(resolver Resolver, opts ...Option) *Checker[Book] {
	return NewChecker[Book](BooksTarget, resolver, opts...)
}

// NewUserChecker checks users in the user service.
func NewUserChecker(resolver Resolver, opts ...Option) *Checker[User] {
	return NewChecker[User](UsersTarget, resolver, opts...)
}

// Check fetches id from the remote service.
func (c *Checker[T]) Check(ctx context.Context, id uuid.UUID) Outcome[T] {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "dependency.check",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("dependency.service", c.target.Service),
			attribute.String("entity.id", id.String()),
		),
	)
	defer span.End()

	out := c.check(ctx, id)

	span.SetAttributes(attribute.String("dependency.outcome", out.Status.String()))
	if out.Status == StatusUnreachable || out.Status == StatusRemoteError {
		span.SetStatus(codes.Error, out.String())
		c.logger.Warn().
			Str("id", id.String()).
			Str("outcome", out.Status.String()).
			Int("remote_status", out.HTTPStatus).
			Str("remote_message", out.Message).
			AnErr("cause", out.Err).
			Msg("dependency check failed")
	}
	observeCheck(c.target.Service, out.Status, time.Since(start))
	return out
}

func (c *Checker[T]) check(ctx context.Context, id uuid.UUID) Outcome[T] {
	if c.breaker == nil {
		return c.fetch(ctx, id)
	}

	done, err := c.breaker.Allow()
	if err != nil {
		return Unreachable[T](fmt.Errorf("circuit open: %w", err))
	}
	out := c.fetch(ctx, id)
	done(breakerResult(ctx, out))
	return out
}

// breakerResult reports unreachable dependencies and 5xx answers as
// failures. Checks abandoned by the caller's own context are not failures.
func breakerResult[T any](ctx context.Context, out Outcome[T]) error {
	if ctx.Err() != nil {
		return nil
	}
	if out.Status == StatusUnreachable ||
		(out.Status == StatusRemoteError && out.HTTPStatus >= http.StatusInternalServerError) {
		return errDependencyFailure
	}
	return nil
}

func (c *Checker[T]) fetch(ctx context.Context, id uuid.UUID) Outcome[T] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	base, err := c.resolver.Resolve(ctx, c.target.Service)
	if err != nil {
		return Unreachable[T](fmt.Errorf("resolve %s: %w", c.target.Service, err))
	}

	url := strings.TrimRight(base, "/") + c.target.Resource + "/" + id.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Unreachable[T](fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		req.Header.Set(middleware.RequestIDHeader, reqID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return Unreachable[T](err)
	}
	defer resp.Body.Close()

	return classify[T](resp)
}

// classify turns a response from a reachable service into an outcome.
// A 404, a success envelope without data, or a failure envelope whose
// text says "not found" all count as NotFound.
func classify[T any](resp *http.Response) Outcome[T] {
	if resp.StatusCode == http.StatusNotFound {
		return NotFound[T]()
	}

	env, err := envelope.Decode[T](resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if err == nil {
			msg = firstNonEmpty(env.Message, env.Error, msg)
		}
		return RemoteError[T](resp.StatusCode, msg)
	}
	if err != nil {
		return RemoteError[T](resp.StatusCode, fmt.Sprintf("undecodable body: %v", err))
	}

	if env.Success {
		if !env.HasData() {
			return NotFound[T]()
		}
		return Found(*env.Data)
	}
	if mentionsNotFound(env.Message) || mentionsNotFound(env.Error) {
		return NotFound[T]()
	}
	return RemoteError[T](resp.StatusCode, firstNonEmpty(env.Message, env.Error, "unsuccessful response"))
}

func mentionsNotFound(s string) bool {
	return strings.Contains(strings.ToLower(s), "not found")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
