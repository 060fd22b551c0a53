package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
)

func TestToggleIsAnInvolution(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")

	for _, kind := range []model.TargetKind{model.TargetVideo, model.TargetComment, model.TargetTweet} {
		target := uuid.NewString()

		reacted, err := f.ledger.Toggle(ctx, kind, target, r)
		require.NoError(t, err)
		require.True(t, reacted)

		reacted, err = f.ledger.Toggle(ctx, kind, target, r)
		require.NoError(t, err)
		require.False(t, reacted)

		n, err := f.reactions.Count(ctx, r, model.Target{Kind: kind, ID: target})
		require.NoError(t, err)
		require.Zero(t, n)
	}
}

func TestToggleKeepsKindsApart(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")
	id := uuid.NewString()

	reacted, err := f.ledger.Toggle(ctx, model.TargetVideo, id, r)
	require.NoError(t, err)
	require.True(t, reacted)

	// same id, different kind: a separate like
	reacted, err = f.ledger.Toggle(ctx, model.TargetComment, id, r)
	require.NoError(t, err)
	require.True(t, reacted)
}

func TestToggleRejectsMalformedInput(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")

	_, err := f.ledger.Toggle(ctx, model.TargetVideo, "not-a-uuid", r)
	require.True(t, apperr.IsInvalidArgument(err))

	_, err = f.ledger.Toggle(ctx, "playlist", uuid.NewString(), r)
	require.True(t, apperr.IsInvalidArgument(err))

	_, err = f.ledger.Toggle(ctx, model.TargetVideo, uuid.NewString(), "")
	require.True(t, apperr.IsUnauthorized(err))
}

func TestConcurrentToggleFromFreshStateLeavesOneRow(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")
	target := uuid.NewString()

	// hold both toggles after their delete so both see the fresh state
	var ready sync.WaitGroup
	ready.Add(2)
	f.ledger.beforeInsert = func() {
		ready.Done()
		ready.Wait()
	}

	results := make([]bool, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reacted, err := f.ledger.Toggle(ctx, model.TargetVideo, target, r)
			if err != nil {
				t.Errorf("toggle %d: %v", i, err)
				return
			}
			results[i] = reacted
		}(i)
	}
	wg.Wait()

	require.Equal(t, []bool{true, true}, results)
	n, err := f.reactions.Count(ctx, r, model.Target{Kind: model.TargetVideo, ID: target})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestConcurrentTogglesNeverDuplicate(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")
	target := uuid.NewString()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Toggle(ctx, model.TargetTweet, target, r); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := f.reactions.Count(ctx, r, model.Target{Kind: model.TargetTweet, ID: target})
	require.NoError(t, err)
	require.LessOrEqual(t, n, int64(1))
}

func TestTogglePublishesEvents(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")
	target := uuid.NewString()

	_, err := f.ledger.Toggle(ctx, model.TargetComment, target, r)
	require.NoError(t, err)
	_, err = f.ledger.Toggle(ctx, model.TargetComment, target, r)
	require.NoError(t, err)

	require.Len(t, f.events.reactions, 2)
	require.True(t, f.events.reactions[0].Reacted)
	require.False(t, f.events.reactions[1].Reacted)
	require.Equal(t, "comment", f.events.reactions[0].TargetKind)
	require.Equal(t, target, f.events.reactions[0].TargetID)
}

func TestTogglePublishFailureKeepsWrite(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	f.events.err = errors.New("broker down")
	ctx := context.Background()
	r := f.seed("reactor")
	target := uuid.NewString()

	reacted, err := f.ledger.Toggle(ctx, model.TargetVideo, target, r)
	require.NoError(t, err)
	require.True(t, reacted)

	n, err := f.reactions.Count(ctx, r, model.Target{Kind: model.TargetVideo, ID: target})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLikedVideosAndPurge(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	owner := f.seed("owner")
	fan := f.seed("fan")
	v1 := f.video(owner, 10)
	v2 := f.video(owner, 20)

	for _, v := range []string{v1, v2} {
		_, err := f.ledger.Toggle(ctx, model.TargetVideo, v, fan)
		require.NoError(t, err)
	}

	liked, err := f.ledger.LikedVideos(ctx, fan)
	require.NoError(t, err)
	require.Len(t, liked, 2)

	n, err := f.ledger.PurgeTarget(ctx, "video", v1)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	liked, err = f.ledger.LikedVideos(ctx, fan)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	require.Equal(t, v2, liked[0].ID)

	_, err = f.ledger.PurgeTarget(ctx, "playlist", v1)
	require.True(t, apperr.IsInvalidArgument(err))
}

func TestToggleTreatsUUIDSpellingsAsOneTarget(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	r := f.seed("reactor")
	id := uuid.NewString()

	reacted, err := f.ledger.Toggle(ctx, model.TargetVideo, strings.ToUpper(id), r)
	require.NoError(t, err)
	require.True(t, reacted)

	// lower-case spelling of the same uuid removes the like
	reacted, err = f.ledger.Toggle(ctx, model.TargetVideo, id, strings.ToUpper(r))
	require.NoError(t, err)
	require.False(t, reacted)

	for _, spelling := range []string{id, strings.ToUpper(id)} {
		n, err := f.reactions.Count(ctx, r, model.Target{Kind: model.TargetVideo, ID: spelling})
		require.NoError(t, err)
		require.Zero(t, n, spelling)
	}

	reacted, err = f.ledger.Toggle(ctx, model.TargetVideo, strings.ToUpper(id), r)
	require.NoError(t, err)
	require.True(t, reacted)
	n, err := f.reactions.Count(ctx, r, model.Target{Kind: model.TargetVideo, ID: id})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPurgeTargetCanonicalisesID(t *testing.T) {
	f := newFixture(t, SessionConfig{})
	ctx := context.Background()
	fans := []string{f.seed("ann"), f.seed("ben")}
	target := uuid.NewString()

	for _, fan := range fans {
		_, err := f.ledger.Toggle(ctx, model.TargetComment, target, fan)
		require.NoError(t, err)
	}

	mixed := strings.ToUpper(target[:8]) + target[8:]
	n, err := f.ledger.PurgeTarget(ctx, "comment", mixed)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	left, err := f.reactions.CountForTarget(ctx, model.Target{Kind: model.TargetComment, ID: target})
	require.NoError(t, err)
	require.Zero(t, left)

	_, err = f.ledger.PurgeTarget(ctx, "comment", "c-42")
	require.True(t, apperr.IsInvalidArgument(err))
}
