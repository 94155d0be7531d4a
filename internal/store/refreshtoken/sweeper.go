package refreshtoken

import (
	"context"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// Sweeper borra periódicamente los tokens expirados, fuera del camino del request.
type Sweeper struct {
	Repo     Repository
	Interval time.Duration
}

// Run bloquea hasta que ctx se cancela.
func (s Sweeper) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("refresh.sweeper"))
	if s.Interval <= 0 {
		log.Info("refresh sweeper disabled")
		return nil
	}

	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := s.Repo.DeleteExpired(ctx)
			if err != nil {
				log.Warn("delete expired refresh tokens failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Info("expired refresh tokens purged", logger.Count(n))
			}
		}
	}
}
