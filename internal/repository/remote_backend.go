package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/pkg/config"
	"github.com/noah-isme/pocket-university-api/pkg/middleware/requestid"
)

// Document API verbs.
const (
	VerbFind       = "find"
	VerbInsertOne  = "insertOne"
	VerbUpdateOne  = "updateOne"
	VerbUpdateMany = "updateMany"
)

// RequestError reports a failed document API call. Status is zero when the
// request never produced a response.
type RequestError struct {
	Verb       string
	Collection string
	Status     int
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("document api %s on %s: %v", e.Verb, e.Collection, e.Err)
	}
	return fmt.Sprintf("document api %s on %s: status %d: %s", e.Verb, e.Collection, e.Status, e.Body)
}

// Unwrap returns the transport error, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// RemoteBackend talks to a hosted document database through its HTTP data
// API. Every call is one POST to <actionURL>/<verb>.
type RemoteBackend struct {
	client     *http.Client
	actionURL  string
	apiKey     string
	dataSource string
	database   string
	logger     *zap.Logger
}

// NewRemoteBackend builds a backend from the Mongo configuration. A zero
// RequestTimeout leaves calls without a deadline.
func NewRemoteBackend(cfg config.MongoConfig, client *http.Client, logger *zap.Logger) *RemoteBackend {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteBackend{
		client:     client,
		actionURL:  cfg.ActionURL(),
		apiKey:     cfg.APIKey,
		dataSource: cfg.ClusterName,
		database:   cfg.Database,
		logger:     logger,
	}
}

// Name identifies the backend.
func (b *RemoteBackend) Name() string {
	return "remote"
}

// Find returns every document of the collection.
func (b *RemoteBackend) Find(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var res struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := b.call(ctx, VerbFind, collection, Document{"filter": Filter{}}, &res); err != nil {
		return nil, err
	}
	if res.Documents == nil {
		return []json.RawMessage{}, nil
	}
	return res.Documents, nil
}

// InsertOne inserts a single document.
func (b *RemoteBackend) InsertOne(ctx context.Context, collection string, doc Document) error {
	return b.call(ctx, VerbInsertOne, collection, Document{"document": doc}, nil)
}

// UpdateOne applies $set to the first document matching filter.
func (b *RemoteBackend) UpdateOne(ctx context.Context, collection string, filter Filter, set Document) error {
	return b.call(ctx, VerbUpdateOne, collection, Document{
		"filter": filter,
		"update": Document{"$set": set},
	}, nil)
}

// UpdateMany applies $set to every document matching filter.
func (b *RemoteBackend) UpdateMany(ctx context.Context, collection string, filter Filter, set Document) error {
	return b.call(ctx, VerbUpdateMany, collection, Document{
		"filter": filter,
		"update": Document{"$set": set},
	}, nil)
}

func (b *RemoteBackend) call(ctx context.Context, verb, collection string, body Document, out interface{}) error {
	payload := Document{}
	for k, v := range body {
		payload[k] = v
	}
	payload["dataSource"] = b.dataSource
	payload["database"] = b.database
	payload["collection"] = collection

	raw, err := json.Marshal(payload)
	if err != nil {
		return &RequestError{Verb: verb, Collection: collection, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.actionURL+"/"+verb, bytes.NewReader(raw))
	if err != nil {
		return &RequestError{Verb: verb, Collection: collection, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Warn("document api request failed", zap.String("verb", verb), zap.String("collection", collection), zap.Error(err))
		return &RequestError{Verb: verb, Collection: collection, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Verb: verb, Collection: collection, Status: resp.StatusCode, Err: err}
	}
	b.logger.Debug("document api request",
		zap.String("verb", verb),
		zap.String("collection", collection),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b.logger.Warn("document api error response", zap.String("verb", verb), zap.String("collection", collection), zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return &RequestError{Verb: verb, Collection: collection, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RequestError{Verb: verb, Collection: collection, Status: resp.StatusCode, Body: string(respBody), Err: err}
	}
	return nil
}
