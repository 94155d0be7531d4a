package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config del logger del proceso; sale de app.env y de la sección log del config.
type Config struct {
	// Env: "prod" o "production" loguean JSON con stacktrace en error.
	// Cualquier otro valor es modo desarrollo.
	Env string

	// Level mínimo. Vacío o desconocido = info.
	Level string

	// Format fuerza "json" o "console" sin importar Env (LOG_FORMAT).
	Format string

	// ServiceName y Version viajan en todas las líneas.
	ServiceName string
	Version     string
}

func (c Config) isProd() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	}
	return false
}

// encoding resuelve el formato efectivo.
func (c Config) encoding() string {
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "json":
		return "json"
	case "console", "text":
		return "console"
	}
	if c.isProd() {
		return "json"
	}
	return "console"
}

func (c Config) zapConfig() zap.Config {
	var zc zap.Config
	if c.isProd() {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}

	zc.Encoding = c.encoding()
	if zc.Encoding == "console" {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zc.Level = zap.NewAtomicLevelAt(parseLevel(c.Level))

	fields := map[string]any{}
	if c.ServiceName != "" {
		fields["service"] = c.ServiceName
	}
	if c.Version != "" {
		fields["version"] = c.Version
	}
	if len(fields) > 0 {
		zc.InitialFields = fields
	}
	return zc
}

func build(cfg Config) *zap.Logger {
	l, err := cfg.zapConfig().Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		// Fallback a un logger básico si falla
		l, _ = zap.NewProduction()
	}
	return l
}

// parseLevel acepta los nombres de zap más "warning". El mínimo efectivo
// es error: dpanic, panic y fatal se bajan a error.
func parseLevel(lvl string) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	if l > zapcore.ErrorLevel {
		return zapcore.ErrorLevel
	}
	return l
}
