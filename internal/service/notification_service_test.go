package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

func dispatchTo(t *testing.T, p *portal, userIDs ...string) {
	t.Helper()
	recipients := make([]Recipient, 0, len(userIDs))
	for _, id := range userIDs {
		recipients = append(recipients, Recipient{UserID: id, Segment: SegmentSelf})
	}
	_, err := p.notifier.Dispatch(context.Background(), Event{Kind: EventProfileUpdated}, recipients)
	require.NoError(t, err)
}

func TestNotificationListNewestFirst(t *testing.T) {
	p := newPortal(t)
	dispatchTo(t, p, "ST1001")
	p.clock.Advance(time.Minute)
	dispatchTo(t, p, "ST1001", "ST1002")

	list, err := p.notifier.List(p.user(t, "ST1001"))
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.UnreadCount)
	assert.True(t, list.Items[0].Timestamp.After(list.Items[1].Timestamp))
	assert.Equal(t, models.NotificationInfo, list.Items[0].Type)
}

func TestNotificationMarkRead(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	dispatchTo(t, p, "ST1001", "ST1002")
	list, err := p.notifier.List(p.user(t, "ST1001"))
	require.NoError(t, err)
	id := list.Items[0].ID

	_, err = p.notifier.MarkRead(ctx, p.user(t, "ST1002"), id)
	assertCode(t, err, appErrors.ErrForbidden.Code)
	_, err = p.notifier.MarkRead(ctx, p.user(t, "ST1001"), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)

	n, err := p.notifier.MarkRead(ctx, p.user(t, "ST1001"), id)
	require.NoError(t, err)
	assert.True(t, n.Read)
	assert.Equal(t, 1, p.backend.count(repository.CollectionNotifications, repository.VerbUpdateOne))

	list, err = p.notifier.List(p.user(t, "ST1001"))
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)
}

func TestNotificationMarkAllReadScopedToUser(t *testing.T) {
	p := newPortal(t)
	dispatchTo(t, p, "ST1001", "ST1002")
	dispatchTo(t, p, "ST1001")

	changed, err := p.notifier.MarkAllRead(context.Background(), p.user(t, "ST1001"))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, 1, p.backend.count(repository.CollectionNotifications, repository.VerbUpdateMany))

	other, err := p.notifier.List(p.user(t, "ST1002"))
	require.NoError(t, err)
	assert.Equal(t, 1, other.UnreadCount)
}

func TestDispatchPartialFailure(t *testing.T) {
	p := newPortal(t)
	p.backend.failOn(repository.CollectionNotifications, repository.VerbInsertOne)

	delivered, err := p.notifier.Dispatch(context.Background(), Event{Kind: EventProfileUpdated}, []Recipient{{UserID: "ST1001"}, {UserID: "ST1002"}})
	require.Error(t, err)
	assert.Zero(t, delivered)
	assert.Len(t, p.store.Notifications(), 2)
	assert.Equal(t, uint64(2), p.metrics.Snapshot().NotificationsFailed)
}

func TestDispatchWritesFailedNotificationOnce(t *testing.T) {
	p := newPortal(t)
	p.backend.failOn(repository.CollectionNotifications, repository.VerbInsertOne)

	_, err := p.notifier.Dispatch(context.Background(), Event{Kind: EventProfileUpdated}, []Recipient{{UserID: "ST1001"}})
	require.Error(t, err)

	assert.Equal(t, 1, p.backend.count(repository.CollectionNotifications, repository.VerbInsertOne))
	assert.Equal(t, uint64(1), p.metrics.Snapshot().NotificationsFailed)
	assert.Equal(t, []string{"Profile Updated"}, p.inbox("ST1001"))
}
