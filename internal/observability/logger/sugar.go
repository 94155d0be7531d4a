package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger global. Lo usan los comandos del CLI,
// donde el formato printf es más cómodo que los campos tipados.
//
//	logger.S().Infof("purged %d refresh tokens", n)
func S() *zap.SugaredLogger {
	return L().Sugar()
}
