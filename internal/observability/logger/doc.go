// Package logger provee el logger Zap del proceso con scoping por request.
//
// # Design Decisions
//
//   - Global: una sola instancia inicializada con Init(); Replace() la intercambia en tests.
//   - Context Scoping: el middleware de logging inyecta un logger con request_id,
//     method y path; el pipeline agrega user_id/role/jti una vez autenticado.
//   - Environments: "dev" usa consola con colores, "prod"/"production" usa JSON.
//   - Los motivos internos de rechazo (firma, expiración, revocación) sólo se loguean
//     con Reason(); la respuesta HTTP siempre es uniforme.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "gatekeeper"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Refresh"))
//	log.Info("refresh rotated", logger.UserID(uid))
package logger
