package repository

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const localKeyPrefix = "pocket_"

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// LocalBackend keeps every collection as one JSON array record in the
// on-device key-value table. Writes read, modify and rewrite the whole
// collection.
type LocalBackend struct {
	kv     kvStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewLocalBackend constructs the fallback backend.
func NewLocalBackend(kv kvStore, logger *zap.Logger) *LocalBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalBackend{kv: kv, logger: logger}
}

// Name identifies the backend.
func (b *LocalBackend) Name() string {
	return "local"
}

// Find returns every document of the collection; a missing or unreadable
// record reads as an empty collection.
func (b *LocalBackend) Find(ctx context.Context, collection string) ([]json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// InsertOne appends the document. Notifications are kept newest first.
func (b *LocalBackend) InsertOne(ctx context.Context, collection string, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.load(ctx, collection)
	if err != nil {
		return err
	}
	if collection == CollectionNotifications {
		docs = append([]Document{doc}, docs...)
	} else {
		docs = append(docs, doc)
	}
	return b.save(ctx, collection, docs)
}

// UpdateOne merges set into the first matching document.
func (b *LocalBackend) UpdateOne(ctx context.Context, collection string, filter Filter, set Document) error {
	return b.update(ctx, collection, filter, set, false)
}

// UpdateMany merges set into every matching document.
func (b *LocalBackend) UpdateMany(ctx context.Context, collection string, filter Filter, set Document) error {
	return b.update(ctx, collection, filter, set, true)
}

func (b *LocalBackend) update(ctx context.Context, collection string, filter Filter, set Document, many bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs, err := b.load(ctx, collection)
	if err != nil {
		return err
	}
	changed := false
	for _, doc := range docs {
		if !filter.matches(doc) {
			continue
		}
		for k, v := range set {
			doc[k] = v
		}
		changed = true
		if !many {
			break
		}
	}
	if !changed {
		return nil
	}
	return b.save(ctx, collection, docs)
}

func (b *LocalBackend) load(ctx context.Context, collection string) ([]Document, error) {
	raw, ok, err := b.kv.Get(ctx, localKeyPrefix+collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Document{}, nil
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		b.logger.Warn("discarding unreadable local collection", zap.String("collection", collection), zap.Error(err))
		return []Document{}, nil
	}
	return docs, nil
}

func (b *LocalBackend) save(ctx context.Context, collection string, docs []Document) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return b.kv.Put(ctx, localKeyPrefix+collection, raw)
}
