package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartTokenCleanup elimina registros de tokens expirados cada interval
// hasta que el contexto se cancele. Con Redis el TTL nativo hace el trabajo
// y las pasadas reportan cero bajas.
func StartTokenCleanup(ctx context.Context, logger *zap.Logger, store TokenStore, interval time.Duration) {
	if store == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired()
			if err != nil {
				logger.Warn("token cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired tokens removed", zap.Int64("count", n))
			}
		}
	}
}
