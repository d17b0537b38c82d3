package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/pkg/config"
)

// Collection names shared by both backends.
const (
	CollectionUsers         = "users"
	CollectionCourses       = "courses"
	CollectionSessions      = "sessions"
	CollectionMessages      = "messages"
	CollectionNotifications = "notifications"
)

// Filter matches documents whose fields equal the given values.
type Filter map[string]interface{}

// Document is a loosely typed document body.
type Document map[string]interface{}

// DocumentBackend is the storage capability both persistence backends
// provide. Verbs mirror the document API: find, insertOne, updateOne and
// updateMany with $set semantics.
type DocumentBackend interface {
	Name() string
	Find(ctx context.Context, collection string) ([]json.RawMessage, error)
	InsertOne(ctx context.Context, collection string, doc Document) error
	UpdateOne(ctx context.Context, collection string, filter Filter, set Document) error
	UpdateMany(ctx context.Context, collection string, filter Filter, set Document) error
}

// DocumentCollection is a typed view over one collection.
type DocumentCollection[T any] struct {
	name    string
	backend DocumentBackend
	idOf    func(T) string
}

// Name returns the collection name.
func (c *DocumentCollection[T]) Name() string {
	return c.name
}

// GetAll returns every document of the collection.
func (c *DocumentCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	raws, err := c.backend.Find(ctx, c.name)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Create inserts the entity and returns it unchanged.
func (c *DocumentCollection[T]) Create(ctx context.Context, item T) (T, error) {
	doc, err := toDocument(item)
	if err != nil {
		return item, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	if err := c.backend.InsertOne(ctx, c.name, doc); err != nil {
		return item, err
	}
	return item, nil
}

// Update replaces the application fields of the document with the same id.
func (c *DocumentCollection[T]) Update(ctx context.Context, item T) (T, error) {
	doc, err := toDocument(item)
	if err != nil {
		return item, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	if err := c.backend.UpdateOne(ctx, c.name, Filter{"id": c.idOf(item)}, doc); err != nil {
		return item, err
	}
	return item, nil
}

// NotificationCollection adds read-state transitions to notifications.
type NotificationCollection struct {
	*DocumentCollection[models.Notification]
}

// MarkRead flags one notification as read.
func (c *NotificationCollection) MarkRead(ctx context.Context, id string) error {
	return c.backend.UpdateOne(ctx, c.name, Filter{"id": id}, Document{"read": true})
}

// MarkAllRead flags every notification of the user as read.
func (c *NotificationCollection) MarkAllRead(ctx context.Context, userID string) error {
	return c.backend.UpdateMany(ctx, c.name, Filter{"userId": userID}, Document{"read": true})
}

// Datastore groups the five collections over the single backend selected
// at startup.
type Datastore struct {
	backend       DocumentBackend
	Users         *DocumentCollection[models.User]
	Courses       *DocumentCollection[models.Course]
	Sessions      *DocumentCollection[models.ClassSession]
	Messages      *DocumentCollection[models.Message]
	Notifications *NotificationCollection
}

// NewDatastore builds the collection handles over backend.
func NewDatastore(backend DocumentBackend) *Datastore {
	return &Datastore{
		backend: backend,
		Users: &DocumentCollection[models.User]{
			name: CollectionUsers, backend: backend, idOf: func(u models.User) string { return u.ID },
		},
		Courses: &DocumentCollection[models.Course]{
			name: CollectionCourses, backend: backend, idOf: func(c models.Course) string { return c.ID },
		},
		Sessions: &DocumentCollection[models.ClassSession]{
			name: CollectionSessions, backend: backend, idOf: func(s models.ClassSession) string { return s.ID },
		},
		Messages: &DocumentCollection[models.Message]{
			name: CollectionMessages, backend: backend, idOf: func(m models.Message) string { return m.ID },
		},
		Notifications: &NotificationCollection{&DocumentCollection[models.Notification]{
			name: CollectionNotifications, backend: backend, idOf: func(n models.Notification) string { return n.ID },
		}},
	}
}

// Backend names the active backend ("remote" or "local").
func (d *Datastore) Backend() string {
	return d.backend.Name()
}

// toDocument encodes v as a document, dropping any backend-assigned _id so
// updates only replace application fields.
func toDocument(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}

// matches reports whether doc satisfies every equality in filter.
func (f Filter) matches(doc Document) bool {
	for key, want := range f {
		if fmt.Sprint(doc[key]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// SelectBackend picks the remote document backend when its credentials are
// configured and the local fallback otherwise. The choice holds for the
// process lifetime.
func SelectBackend(cfg config.MongoConfig, kv kvStore, logger *zap.Logger) DocumentBackend {
	if cfg.Configured() {
		return NewRemoteBackend(cfg, nil, logger)
	}
	return NewLocalBackend(kv, logger)
}
