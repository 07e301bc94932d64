package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportTickets(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "u1")

	_, err := env.support.Create(ctx, "u1", &dto.CreateTicketRequest{Subject: " ", Message: "hello"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.support.Create(ctx, "u1", &dto.CreateTicketRequest{Subject: "Late", Message: "hello", Priority: "whenever"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ticket, err := env.support.Create(ctx, "u1", &dto.CreateTicketRequest{Subject: "Late order", Message: "Still waiting"})
	require.NoError(t, err)
	assert.Equal(t, model.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, model.TicketStatusOpen, ticket.Status)

	agent := "agent-7"
	updated, err := env.support.Update(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status:     model.TicketStatusResolved,
		AssignedTo: &agent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, agent, *updated.AssignedTo)

	list, err := env.notifications.List(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, "Ticket resolved", list.Notifications[0].Title)

	open, err := env.support.List(ctx, model.TicketStatusOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	mine, err := env.support.ListMine(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = env.support.Update(ctx, "missing", &dto.UpdateTicketRequest{Status: model.TicketStatusClosed})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.support.Update(ctx, ticket.ID, &dto.UpdateTicketRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotificationsMarkRead(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	env.notifications.Notify(ctx, "u1", "One", "first", model.NotificationInfo)
	env.notifications.Notify(ctx, "u1", "Two", "second", model.NotificationInfo)

	list, err := env.notifications.List(ctx, "u1", 500)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 2)
	assert.Equal(t, int64(2), list.UnreadCount)

	assert.ErrorIs(t, env.notifications.MarkRead(ctx, "u2", list.Notifications[0].ID), ErrNotFound)
	require.NoError(t, env.notifications.MarkRead(ctx, "u1", list.Notifications[0].ID))

	list, err = env.notifications.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.UnreadCount)

	require.NoError(t, env.notifications.MarkAllRead(ctx, "u1"))
	list, err = env.notifications.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.UnreadCount)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	first := env.user(t, "u1")
	assert.True(t, first.WalletBalance.IsZero())

	// a second sign-in keeps the existing row
	env.setWallet(t, "u1", "75")
	again := env.user(t, "u1")
	assert.Equal(t, "75", again.WalletBalance.String())

	name := "  Ada Obi "
	long := strings.Repeat("9", 40)

	_, err := env.profiles.Update(ctx, "u1", &dto.UpdateProfileRequest{PhoneNumber: &long})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := env.profiles.Update(ctx, "u1", &dto.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Ada Obi", *updated.FullName)

	_, err = env.profiles.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	isAdmin, err := env.profiles.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, env.profiles.GrantAdmin(ctx, "u1"))
	require.NoError(t, env.profiles.GrantAdmin(ctx, "u1"))
	isAdmin, err = env.profiles.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestAnalyticsTrack(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	err := env.analytics.Track(ctx, ClientInfo{IPAddress: "10.0.0.1"}, &dto.TrackEventRequest{EventType: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = env.analytics.Track(ctx, ClientInfo{UserID: "u1", IPAddress: "10.0.0.1", UserAgent: "test"}, &dto.TrackEventRequest{
		EventType: "package_viewed",
		EventData: json.RawMessage(`{"platform":"Instagram"}`),
	})
	require.NoError(t, err)

	err = env.analytics.Track(ctx, ClientInfo{}, &dto.TrackEventRequest{EventType: "page_view"})
	require.NoError(t, err)

	var events []model.AnalyticsEvent
	require.NoError(t, env.db.Order("event_type").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, "package_viewed", events[0].EventType)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, "u1", *events[0].UserID)
	assert.JSONEq(t, `{"platform":"Instagram"}`, string(events[0].EventData))
	assert.Nil(t, events[1].UserID)
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// "é" is two bytes; cutting after its first byte drops it whole
	got := truncate("aé", 2)
	assert.Equal(t, "a", got)
	assert.True(t, utf8.ValidString(got))

	ua := strings.Repeat("я", 300)
	got = truncate(ua, 511)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 510)
}
