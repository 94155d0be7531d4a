// Package audit emite eventos de seguridad (login, refresh, revocaciones) hacia
// un Sink de forma fire-and-forget: una falla o un buffer lleno nunca bloquea
// ni hace fallar el request.
package audit

import (
	"context"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// Acciones emitidas.
const (
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionRegister    = "register"
	ActionRefresh     = "refresh"
	ActionRevoke      = "revoke"
	ActionRevokeAll   = "revoke_all"
)

// Event es un registro de auditoría.
type Event struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     int64
	IP         string
	Old        map[string]any
	New        map[string]any
	At         time.Time
}

// Sink recibe eventos. Las implementaciones no deben bloquear indefinidamente.
type Sink interface {
	Log(ctx context.Context, ev Event)
}

// NopSink descarta todo.
type NopSink struct{}

func (NopSink) Log(context.Context, Event) {}

// ZapSink escribe cada evento como una línea estructurada.
type ZapSink struct{}

func (ZapSink) Log(ctx context.Context, ev Event) {
	fields := []logger.Field{
		logger.String("action", ev.Action),
		logger.String("entity_type", ev.EntityType),
		logger.String("entity_id", ev.EntityID),
		logger.Time("at", ev.At),
	}
	if ev.UserID > 0 {
		fields = append(fields, logger.UserID(ev.UserID))
	}
	if ev.IP != "" {
		fields = append(fields, logger.ClientIP(ev.IP))
	}
	if len(ev.Old) > 0 {
		fields = append(fields, logger.Any("old", ev.Old))
	}
	if len(ev.New) > 0 {
		fields = append(fields, logger.Any("new", ev.New))
	}
	logger.From(ctx).Named("audit").Info("audit event", fields...)
}
