package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/store"
)

// OfflineWarning is shown once when any collection failed to load.
const OfflineWarning = "Connection failed. Running in offline mode."

// Bootstrap fills the store from the datastore and restores the previous
// session. Load failures never abort startup.
func Bootstrap(ctx context.Context, st *store.Store, ds *repository.Datastore, auth *AuthService, feedback *FeedbackService, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := st.Load(ctx, ds, logger)
	if len(failed) > 0 {
		feedback.Error(OfflineWarning)
		logger.Warn("started with degraded collections", zap.Strings("collections", failed), zap.String("backend", ds.Backend()))
	} else {
		logger.Info("collections loaded", zap.String("backend", ds.Backend()))
	}
	if auth != nil {
		if err := auth.Restore(ctx); err != nil {
			logger.Warn("session restore failed", zap.Error(err))
		}
	}
	return failed
}
