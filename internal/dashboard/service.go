// Package dashboard aggregates the front-desk metrics shown on the admin
// home page and caches them in Redis.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/format"
)

// SnapshotKey is the Redis key holding the latest snapshot.
const SnapshotKey = "dashboard:snapshot"

// Snapshot is one reading of the dashboard metrics.
type Snapshot struct {
	TotalBookings   int       `json:"total_bookings"`
	PendingRequests int       `json:"pending_requests"`
	CheckedIn       int       `json:"checked_in"`
	AvailableRooms  int       `json:"available_rooms"`
	RevenueToday    float64   `json:"revenue_today"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}

// View adds display strings to a snapshot.
type View struct {
	Snapshot
	Display struct {
		RevenueToday string `json:"revenue_today"`
		RefreshedAt  string `json:"refreshed_at"`
	} `json:"display"`
}

// Present formats s for the UI.
func Present(s Snapshot) View {
	v := View{Snapshot: s}
	v.Display.RevenueToday = format.Currency(s.RevenueToday)
	v.Display.RefreshedAt = format.DateTime(s.RefreshedAt)
	return v
}

type metric struct {
	endpoint backend.Endpoint
	action   string
	assign   func(*Snapshot, float64)
}

var metrics = []metric{
	{backend.Admin, "getTotalBookings", func(s *Snapshot, v float64) { s.TotalBookings = int(v) }},
	{backend.Admin, "getPendingBookingsCount", func(s *Snapshot, v float64) { s.PendingRequests = int(v) }},
	{backend.Admin, "getCheckedInCount", func(s *Snapshot, v float64) { s.CheckedIn = int(v) }},
	{backend.Admin, "getAvailableRoomsCount", func(s *Snapshot, v float64) { s.AvailableRooms = int(v) }},
	{backend.Transactions, "getTodayRevenue", func(s *Snapshot, v float64) { s.RevenueToday = v }},
}

// Service collects and caches dashboard snapshots.
type Service struct {
	backend backend.Caller
	cache   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService builds Service instance. Snapshots live for three refresh
// intervals so a stalled worker shows up as a cache miss.
func NewService(caller backend.Caller, cache *redis.Client, interval time.Duration, logger *slog.Logger) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: caller, cache: cache, ttl: 3 * interval, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Collect queries every metric concurrently.
func (s *Service) Collect(ctx context.Context) (Snapshot, error) {
	values := make([]float64, len(metrics))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			resp, err := s.backend.Call(gctx, m.endpoint, m.action, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", m.action, err)
			}
			v, err := resp.DecodeScalar("count", "total", "revenue", "total_revenue")
			if err != nil {
				return fmt.Errorf("%s: %w", m.action, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("dashboard: %w", err)
	}
	snap := Snapshot{RefreshedAt: s.now()}
	for i, m := range metrics {
		m.assign(&snap, values[i])
	}
	return snap, nil
}

// Refresh collects a snapshot and stores it. Concurrent refreshes share one
// collection.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		snap, err := s.Collect(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		s.store(ctx, snap)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Snapshot returns the cached snapshot, refreshing on a miss.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.cached(ctx); ok {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, SnapshotKey).Err()
}

func (s *Service) cached(ctx context.Context) (Snapshot, bool) {
	if s.cache == nil {
		return Snapshot{}, false
	}
	data, err := s.cache.Get(ctx, SnapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read", slog.Any("error", err))
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("dashboard cache decode", slog.Any("error", err))
		return Snapshot{}, false
	}
	return snap, true
}

func (s *Service) store(ctx context.Context, snap Snapshot) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, SnapshotKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("dashboard cache write", slog.Any("error", err))
	}
}
