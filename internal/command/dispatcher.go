package command

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/donaldgifford/marketplace/internal/metrics"
	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

// BaseURLEnv overrides the configured base URL when no base_url parameter is given.
const BaseURLEnv = "MARKETPLACE_BASE_URL"

// Dispatcher resolves a command by name, binds its arguments, builds the
// client for its auth mode and renders the outcome as an Envelope. It holds
// no per-call state and is safe for concurrent use.
type Dispatcher struct {
	registry       *Registry
	getenv         func(string) string
	defaultBaseURL string
	clientOpts     []marketplace.Option
	logger         *slog.Logger
	dispatches     metric.Int64Counter
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithRegistry replaces the built-in command registry.
func WithRegistry(r *Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithGetenv overrides environment lookups.
func WithGetenv(f func(string) string) Option {
	return func(d *Dispatcher) {
		d.getenv = f
	}
}

// WithDefaultBaseURL sets the base URL used when neither the base_url
// parameter nor MARKETPLACE_BASE_URL is set.
func WithDefaultBaseURL(u string) Option {
	return func(d *Dispatcher) {
		d.defaultBaseURL = u
	}
}

// WithClientOptions appends options applied to every client the dispatcher
// builds.
func WithClientOptions(opts ...marketplace.Option) Option {
	return func(d *Dispatcher) {
		d.clientOpts = append(d.clientOpts, opts...)
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher over the built-in commands.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:       Builtin(),
		getenv:         os.Getenv,
		defaultBaseURL: marketplace.DefaultBaseURL,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}

	counter, err := otel.Meter("github.com/donaldgifford/marketplace/internal/command").Int64Counter(
		"marketplace.dispatches",
		metric.WithDescription("Dispatched commands by result."),
	)
	if err != nil {
		d.logger.Warn("creating dispatch counter", "error", err)
	}
	d.dispatches = counter

	return d
}

// Registry returns the dispatcher's command registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ResolveBaseURL applies the precedence: explicit parameter, then the
// environment override, then the configured default, then
// marketplace.DefaultBaseURL. Trailing slashes are stripped.
func (d *Dispatcher) ResolveBaseURL(param string) string {
	for _, candidate := range []string{param, d.getenv(BaseURLEnv), d.defaultBaseURL} {
		if c := strings.TrimSpace(candidate); c != "" {
			return strings.TrimRight(c, "/")
		}
	}
	return marketplace.DefaultBaseURL
}

// Dispatch runs the named command. It never returns a Go error: every
// failure is rendered into the returned envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]any) Envelope {
	env := d.dispatch(ctx, name, params)

	result := env.Status()
	if !env.OK() {
		result = string(env.ErrorType())
	}
	metrics.DispatchTotal.WithLabelValues(name, result).Inc()
	if d.dispatches != nil {
		d.dispatches.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("result", result),
		))
	}

	d.logger.DebugContext(ctx, "command dispatched", "command", name, "result", result)
	return env
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, params map[string]any) Envelope {
	desc, ok := d.registry.Lookup(name)
	if !ok {
		return Failure(argErrorf("", "Unknown command: %s", name))
	}

	args, err := desc.bind(params)
	if err != nil {
		return Failure(err)
	}

	base := d.ResolveBaseURL(args.String(ParamBaseURL))
	call := &Call{Args: args}

	switch desc.Auth {
	case AuthAPIKey:
		key := args.String(ParamAPIKey)
		if key == "" {
			return Failure(argErrorf(ParamAPIKey, "API key is required for this command"))
		}
		call.Client = d.newClient(base, marketplace.WithAPIKey(key))
		return render(desc.Handler(ctx, call))

	case AuthSession:
		user, pass := args.String(ParamUsername), args.String(ParamPassword)
		if user == "" || pass == "" {
			return Failure(argErrorf(ParamUsername, "Username and password are required for this command"))
		}
		return d.withSession(ctx, desc, call, base, user, pass)

	default:
		call.Client = d.newClient(base)
		return render(desc.Handler(ctx, call))
	}
}

// withSession runs one operation between login and logout. Logout runs on
// every path once login succeeded, including a failed operation.
func (d *Dispatcher) withSession(
	ctx context.Context,
	desc *Descriptor,
	call *Call,
	base, user, pass string,
) (env Envelope) {
	call.Client = d.newClient(base)

	sess, err := call.Client.Login(ctx, user, pass)
	if err != nil {
		return Failure(err)
	}
	call.Session = sess

	defer func() {
		if _, err := sess.Logout(context.WithoutCancel(ctx)); err != nil {
			metrics.SessionLogoutFailuresTotal.Inc()
			d.logger.WarnContext(ctx, "session logout failed",
				"command", desc.Name,
				"error", err,
			)
		}
	}()

	return render(desc.Handler(ctx, call))
}

func (d *Dispatcher) newClient(base string, extra ...marketplace.Option) *marketplace.Client {
	opts := make([]marketplace.Option, 0, len(d.clientOpts)+len(extra)+1)
	opts = append(opts, marketplace.WithLogger(d.logger))
	opts = append(opts, d.clientOpts...)
	opts = append(opts, extra...)
	return marketplace.New(base, opts...)
}

func render(fields Fields, err error) Envelope {
	if err != nil {
		return Failure(err)
	}
	return Success(fields)
}
