package listings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	maxConcurrentEdits = 5
	defaultTickTimeout = 45 * time.Second
)

// Scheduler drives the three periodic board jobs: countdown refresh, expiry
// sweep, and full pinned resync. The jobs share nothing mutable beyond the
// store and may overlap with user-triggered operations; per-listing failures
// never block the rest of a pass.
type Scheduler struct {
	store        ListingStore
	profiles     ProfileSource
	gateway      ChannelGateway
	renderer     Renderer
	controller   *Controller
	synchronizer *Synchronizer

	refreshInterval time.Duration
	resyncInterval  time.Duration
	tickTimeout     time.Duration

	sem    *semaphore.Weighted
	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store ListingStore, profiles ProfileSource, gateway ChannelGateway, renderer Renderer, controller *Controller, synchronizer *Synchronizer, refreshInterval, resyncInterval time.Duration) *Scheduler {
	return &Scheduler{
		store:           store,
		profiles:        profiles,
		gateway:         gateway,
		renderer:        renderer,
		controller:      controller,
		synchronizer:    synchronizer,
		refreshInterval: refreshInterval,
		resyncInterval:  resyncInterval,
		tickTimeout:     defaultTickTimeout,
		sem:             semaphore.NewWeighted(maxConcurrentEdits),
		now:             time.Now,
	}
}

// Start launches the periodic jobs. Each runs on its own ticker until Stop
// or the parent context ends.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.runJob(ctx, "countdown_refresh", s.refreshInterval, func(ctx context.Context) {
		s.RefreshCountdowns(ctx)
	})
	s.runJob(ctx, "expiry_sweep", s.refreshInterval, func(ctx context.Context) {
		s.SweepExpired(ctx)
	})
	s.runJob(ctx, "list_resync", s.resyncInterval, func(ctx context.Context) {
		if err := s.synchronizer.SyncPinned(ctx); err != nil {
			slog.Error("Periodic list resync failed",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	})

	slog.Info("Board scheduler started",
		slog.Duration("refresh_interval", s.refreshInterval),
		slog.Duration("resync_interval", s.resyncInterval))
}

// Stop cancels the jobs and waits for in-flight passes to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	slog.Info("Board scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, name string, interval time.Duration, run func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, s.tickTimeout)
				run(tickCtx)
				cancel()
			}
		}
	}()
}

// RefreshCountdowns re-renders every active listing message so its time
// remaining stays current. One failing edit must not block the others, so
// edits run concurrently behind a semaphore and only log their failures.
func (s *Scheduler) RefreshCountdowns(ctx context.Context) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		slog.Error("Countdown refresh failed to load listings",
			slog.String("type", "sys"),
			slog.Any("error", err))
		return
	}

	now := s.now()
	var wg sync.WaitGroup
	for _, listing := range all {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		listing := listing
		go func() {
			defer s.sem.Release(1)
			defer wg.Done()

			profile, err := s.profiles.GetProfile(ctx, listing.OwnerID)
			if err != nil || profile == nil {
				if err != nil {
					slog.Warn("Countdown refresh failed to load profile",
						slog.String("owner_id", listing.OwnerID),
						slog.Any("error", err))
				}
				return
			}

			post := s.renderer.RenderListing(profile, listing, now)
			if err := s.gateway.Edit(ctx, listing.MessageID, post); err != nil {
				// A vanished message is cleaned up by the next sweep.
				slog.Warn("Failed to refresh listing countdown",
					slog.String("owner_id", listing.OwnerID),
					slog.Uint64("message_id", uint64(listing.MessageID)),
					slog.Any("error", err))
			}
		}()
	}
	wg.Wait()
}

// SweepExpired expires every listing whose time has run out and, when at
// least one was removed, resyncs the pinned summary exactly once. Returns
// how many listings were expired in this pass.
func (s *Scheduler) SweepExpired(ctx context.Context) int {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		slog.Error("Expiry sweep failed to load listings",
			slog.String("type", "sys"),
			slog.Any("error", err))
		return 0
	}

	now := s.now()
	expired := 0
	for _, listing := range all {
		if !listing.Expired(now) {
			continue
		}

		slog.Info("Listing expired",
			slog.String("owner_id", listing.OwnerID),
			slog.Int64("listing_id", listing.ID),
			slog.Time("expires_at", listing.ExpiresAt))

		if err := s.controller.Expire(ctx, listing); err != nil {
			slog.Error("Failed to expire listing",
				slog.String("owner_id", listing.OwnerID),
				slog.Int64("listing_id", listing.ID),
				slog.Any("error", err))
			continue
		}
		expired++
	}

	if expired > 0 {
		if err := s.synchronizer.SyncPinned(ctx); err != nil {
			slog.Error("Post-sweep list sync failed",
				slog.String("type", "sys"),
				slog.Any("error", err))
		}
	}
	return expired
}
