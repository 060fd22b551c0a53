package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
)

func TestSubscriptionToggle(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.seed("alice")
	bob := f.seed("bob")

	subscribed, err := f.subs.Toggle(ctx, bob, alice)
	require.NoError(t, err)
	require.True(t, subscribed)

	ok, err := f.subsRepo.Exists(ctx, alice, bob)
	require.NoError(t, err)
	require.True(t, ok)

	subscribed, err = f.subs.Toggle(ctx, bob, alice)
	require.NoError(t, err)
	require.False(t, subscribed)

	require.Len(t, f.events.subs, 2)
	require.True(t, f.events.subs[0].Subscribed)
	require.Equal(t, bob, f.events.subs[0].ChannelID)
}

func TestSubscriptionSelfReference(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		id := f.seed(name)
		_, err := f.subs.Toggle(ctx, id, id)
		require.True(t, apperr.IsSelfReference(err), "got %v", err)
		require.True(t, apperr.IsInvalidArgument(err))
	}
}

func TestSubscriptionSelfReferenceIgnoresCase(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	me := f.seed("alice")

	_, err := f.subs.Toggle(ctx, strings.ToUpper(me), me)
	require.True(t, apperr.IsSelfReference(err), "got %v", err)

	_, err = f.subs.Toggle(ctx, me, strings.ToUpper(me))
	require.True(t, apperr.IsSelfReference(err), "got %v", err)

	n, err := f.subsRepo.CountSubscribers(ctx, me)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSubscriptionErrors(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.seed("alice")

	_, err := f.subs.Toggle(ctx, "nope", alice)
	require.True(t, apperr.IsInvalidArgument(err))

	_, err = f.subs.Toggle(ctx, uuid.NewString(), alice)
	require.True(t, apperr.IsNotFound(err))
}

func TestSubscriptionListings(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	alice := f.seed("alice")
	bob := f.seed("bob")
	carol := f.seed("carol")

	for _, pair := range [][2]string{{bob, alice}, {bob, carol}, {alice, carol}} {
		_, err := f.subs.Toggle(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	subs, err := f.subs.ChannelSubscribers(ctx, bob)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	chans, err := f.subs.SubscribedChannels(ctx, carol)
	require.NoError(t, err)
	require.Len(t, chans, 2)

	chans, err = f.subs.SubscribedChannels(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, chans)

	_, err = f.subs.ChannelSubscribers(ctx, uuid.NewString())
	require.True(t, apperr.IsNotFound(err))
}
