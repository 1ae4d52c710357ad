package progression

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/paradox/internal/dependencies/clock"
	"github.com/mcoot/paradox/internal/dependencies/random"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

const tracerName = "github.com/mcoot/paradox/internal/services/progression"

// Notifier receives events for committed state changes
type Notifier interface {
	Publish(event model.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(model.Event) {}

// Config holds configuration for the engine
type Config struct {
	// ReferralCodeAttempts bounds how many fresh codes Register tries when
	// a generated code collides with an existing one
	ReferralCodeAttempts int
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		ReferralCodeAttempts: 5,
	}
}

// Engine owns every state transition of the game economy: registration,
// hint purchases, answers, referrals and coin grants.
type Engine struct {
	storage  storage.Storage
	clock    clock.Clock
	random   random.Random
	notifier Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      Config
}

// New creates a new Engine. notifier may be nil.
func New(storage storage.Storage, clock clock.Clock, random random.Random, notifier Notifier, logger *slog.Logger, cfg Config) *Engine {
	if cfg.ReferralCodeAttempts <= 0 {
		cfg.ReferralCodeAttempts = DefaultConfig().ReferralCodeAttempts
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Engine{
		storage:  storage,
		clock:    clock,
		random:   random,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "progression")),
		tracer:   otel.Tracer(tracerName),
		cfg:      cfg,
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, id model.IdentityID) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("paradox.identity_id", string(id))))
}

// finish ends span and logs the outcome of a failed operation. Domain
// rejections are routine; anything else is an internal failure.
func (e *Engine) finish(span trace.Span, op string, id model.IdentityID, err error) {
	defer span.End()
	if err == nil {
		return
	}
	if model.IsDomainError(err) {
		span.SetAttributes(attribute.String("paradox.rejection", err.Error()))
		e.logger.Debug(op+" rejected",
			slog.String("identity_id", string(id)),
			slog.String("reason", err.Error()))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.logger.Error(op+" failed",
		slog.String("identity_id", string(id)),
		slog.String("error", err.Error()))
}

func (e *Engine) publish(eventType model.EventType, id model.IdentityID, payload any) {
	e.notifier.Publish(model.Event{
		Type:       eventType,
		Timestamp:  e.clock.Now(),
		IdentityID: id,
		Payload:    payload,
	})
}
