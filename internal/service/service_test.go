package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vidtube-backend/internal/database"
	"github.com/iliyamo/vidtube-backend/internal/queue"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

type recordingPublisher struct {
	mu        sync.Mutex
	reactions []queue.ReactionToggledEvent
	subs      []queue.SubscriptionToggledEvent
	err       error
}

func (p *recordingPublisher) PublishReactionToggled(_ context.Context, ev queue.ReactionToggledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reactions = append(p.reactions, ev)
	return p.err
}

func (p *recordingPublisher) PublishSubscriptionToggled(_ context.Context, ev queue.SubscriptionToggledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, ev)
	return p.err
}

type fixture struct {
	users     *repository.UserRepo
	reactions *repository.ReactionRepo
	subsRepo  *repository.SubscriptionRepo

	session *SessionService
	ledger  *Ledger
	subs    *Subscriptions
	stats   *Stats
	events  *recordingPublisher
	seed    func(username string) string
	video   func(ownerID string, views int64) string
}

func newFixture(t *testing.T, cfg SessionConfig) *fixture {
	t.Helper()

	db := database.OpenTestDB(t)
	log := zap.NewNop()
	hasher, err := utils.NewPasswordHasher(utils.SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	if cfg.AccessSecret == "" {
		cfg.AccessSecret = "access-secret"
		cfg.RefreshSecret = "refresh-secret"
		cfg.AccessTTLMin = 15
		cfg.RefreshTTLDays = 7
	}

	f := &fixture{
		users:     repository.NewUserRepo(db),
		reactions: repository.NewReactionRepo(db),
		subsRepo:  repository.NewSubscriptionRepo(db),
		events:    &recordingPublisher{},
	}
	videos := repository.NewVideoRepo(db)
	f.session = NewSessionService(f.users, hasher, cfg, log)
	f.ledger = NewLedger(f.reactions, f.events, log)
	f.subs = NewSubscriptions(f.subsRepo, f.users, f.events, log)
	f.stats = NewStats(videos, f.reactions, f.subsRepo, f.users)
	f.seed = func(username string) string { return database.SeedUser(t, db, username) }
	f.video = func(ownerID string, views int64) string { return database.SeedVideo(t, db, ownerID, views) }
	return f
}
