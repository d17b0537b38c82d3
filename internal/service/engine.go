package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/store"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

// EngineDeps are the collaborators shared by the mutating domain services.
type EngineDeps struct {
	Store     *store.Store
	Notifier  *NotificationService
	Feedback  *FeedbackService
	Cache     *CacheService
	Metrics   *MetricsService
	IDs       *IDGenerator
	Validator *validator.Validate
	Logger    *zap.Logger
}

func (d EngineDeps) withDefaults() EngineDeps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.IDs == nil {
		d.IDs = NewIDGenerator(nil)
	}
	if d.Feedback == nil {
		d.Feedback = NewFeedbackService(0, nil)
	}
	return d
}

func (d EngineDeps) persister() persister {
	return newPersister(d.Metrics, d.Logger)
}

// complete runs the derived fan-out for event (when both event and the
// notifier are set) and records exactly one outcome message: success when
// the durable write and every notification succeeded, failure otherwise.
// Already-applied state is never rolled back.
func (d EngineDeps) complete(ctx context.Context, event *Event, persistErr error, success, failure string) models.Outcome {
	outcome := models.Outcome{Persisted: persistErr == nil}
	var fanErr error
	if event != nil && d.Notifier != nil {
		recipients := Audience(*event, d.Store.Users())
		outcome.Notified, fanErr = d.Notifier.Dispatch(ctx, *event, recipients)
		if fanErr != nil {
			d.Logger.Warn("notification fan-out incomplete", zap.String("event", string(event.Kind)), zap.Error(fanErr))
		}
	}
	d.Cache.InvalidateDashboards(ctx)

	if persistErr != nil || fanErr != nil {
		outcome.Feedback = d.Feedback.Error(failure)
		return outcome
	}
	outcome.Feedback = d.Feedback.Success(success)
	return outcome
}

// reject records the failure message for an operation that was refused
// before touching any state.
func (d EngineDeps) reject(failure string, err error) error {
	d.Feedback.Error(failure)
	return err
}

func (d EngineDeps) validate(payload interface{}) error {
	if err := d.Validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return nil
}

func requireActor(actor *models.User) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	return nil
}
