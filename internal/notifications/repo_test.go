package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Nafis5858/Krishak/pkg/db/dbtest"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
)

func TestInboxLifecycleAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	svc := newServiceWithRepo(repo)
	emitter, err := NewDirectEmitter(repo)
	require.NoError(t, err)

	owner, other := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, emitter.Emit(ctx, NewOrderEvent(enums.NotificationTypeDeliveryPicked, uuid.New(), "KR-1", owner)))
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, emitter.Emit(ctx, NewOrderEvent(enums.NotificationTypeOrderPlaced, uuid.New(), "KR-2", other)))

	page, err := svc.List(ctx, ListParams{UserID: owner, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.EqualValues(t, 3, page.Total)
	require.EqualValues(t, 3, page.UnreadCount)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(ctx, ListParams{UserID: owner, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)

	target := page.Items[0].ID
	require.NoError(t, svc.MarkRead(ctx, owner, target))
	require.NoError(t, svc.MarkRead(ctx, owner, target), "marking twice stays read and succeeds")

	err = svc.MarkRead(ctx, other, target)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code(), "another user's notification is invisible")

	unread, err := svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)

	unreadOnly, err := svc.List(ctx, ListParams{UserID: owner, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unreadOnly.Items, 2)
	for _, item := range unreadOnly.Items {
		require.False(t, item.IsRead)
	}

	updated, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)

	require.Error(t, svc.Delete(ctx, other, target))
	require.NoError(t, svc.Delete(ctx, owner, target))

	after, err := svc.List(ctx, ListParams{UserID: owner})
	require.NoError(t, err)
	require.EqualValues(t, 2, after.Total)
	require.Zero(t, after.UnreadCount)
}
