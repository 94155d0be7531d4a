package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias para no importar zap en los paquetes de dominio.
type Field = zap.Field

// =================================================================================
// HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// UserAgent crea un campo para el User-Agent.
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// =================================================================================
// IDENTIDAD / PIPELINE
// =================================================================================

// UserID crea un campo para el ID numérico del usuario (subject del token).
func UserID(v int64) zap.Field { return zap.Int64("user_id", v) }

// Role crea un campo para el rol del caller.
func Role(v string) zap.Field { return zap.String("role", v) }

// JTI crea un campo para el identificador único del access token.
func JTI(v string) zap.Field { return zap.String("jti", v) }

// APIKeyID crea un campo para el ID de la API key.
func APIKeyID(v int64) zap.Field { return zap.Int64("api_key_id", v) }

// Policy crea un campo para la política de rate limit (general, auth, api_key...).
func Policy(v string) zap.Field { return zap.String("policy", v) }

// Gate crea un campo para la etapa del pipeline (rate, authn, authz).
func Gate(v string) zap.Field { return zap.String("gate", v) }

// Reason crea un campo con el motivo interno de un rechazo.
// Nunca se expone al cliente.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// Email crea un campo con el email enmascarado (ver MaskEmail).
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// =================================================================================
// SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (handler, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// =================================================================================
// DATOS
// =================================================================================

func Count(v int64) zap.Field                { return zap.Int64("count", v) }
func Key(v string) zap.Field                 { return zap.String("key", v) }
func TTL(v time.Duration) zap.Field          { return zap.Duration("ttl", v) }
func Any(key string, v any) zap.Field        { return zap.Any(key, v) }
func String(key, v string) zap.Field         { return zap.String(key, v) }
func Int(key string, v int) zap.Field        { return zap.Int(key, v) }
func Int64(key string, v int64) zap.Field    { return zap.Int64(key, v) }
func Bool(key string, v bool) zap.Field      { return zap.Bool(key, v) }
func Time(key string, v time.Time) zap.Field { return zap.Time(key, v) }
