package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

const sessionSlotKey = localKeyPrefix + "current_user"

type sessionKV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SessionRepository is the durable single-record slot holding the current
// session's user. It always lives on the device, whichever document
// backend is active.
type SessionRepository struct {
	kv sessionKV
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(kv sessionKV) *SessionRepository {
	return &SessionRepository{kv: kv}
}

// Load returns the stored session user, or nil when logged out.
func (r *SessionRepository) Load(ctx context.Context) (*models.User, error) {
	raw, ok, err := r.kv.Get(ctx, sessionSlotKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &user, nil
}

// Save replaces the stored session user.
func (r *SessionRepository) Save(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	return r.kv.Put(ctx, sessionSlotKey, raw)
}

// Clear empties the slot.
func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, sessionSlotKey)
}
