package service

import (
	"context"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// Seat counts are maintained client side with plain arithmetic and no
// transaction. The reconciler periodically replaces the cached view with
// the backend's own counters for every ride a session has touched, so any
// drift from a failed secondary step is corrected on the next tick.

// RequestReconcile marks rideID for re-fetch on the next reconciliation.
func (s *Session) RequestReconcile(rideID string) {
	if rideID == "" {
		return
	}
	s.mu.Lock()
	s.touched[rideID] = struct{}{}
	s.mu.Unlock()
}

// PendingReconcile lists the rides waiting for reconciliation.
func (s *Session) PendingReconcile() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.touched))
	for id := range s.touched {
		out = append(out, id)
	}
	return out
}

// Reconcile re-fetches every marked ride plus the rides behind the
// viewer's bookings and, for drivers, their own rides; then it reloads the
// viewer's bookings. A ride that no longer exists is removed.
func (s *Session) Reconcile(ctx context.Context) error {
	u := s.Auth.CurrentUser()
	if u == nil {
		return nil
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.touched))
	for id := range s.touched {
		ids = append(ids, id)
	}
	s.touched = make(map[string]struct{})
	s.mu.Unlock()

	for _, b := range s.Bookings.Bookings() {
		ids = append(ids, b.RideID)
	}
	if u.Role == model.RoleDriver {
		for _, r := range s.Rides.RidesByDriver(u.ID) {
			ids = append(ids, r.ID)
		}
	}
	ids = uniq(ids)

	tctx := s.withToken(ctx)
	var firstErr error
	for _, id := range ids {
		r, err := s.be.Rides.Get(tctx, id)
		if err != nil {
			s.log.Warning("reconcile ride", logger.String("ride_id", id), logger.Error(err))
			s.RequestReconcile(id)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if r == nil {
			s.Rides.RemoveRide(id)
			s.rideByID.Invalidate(id)
			continue
		}
		s.rememberRide(*r)
	}

	var err error
	switch u.Role {
	case model.RolePassenger:
		err = s.loadPassengerBookings(ctx, *u)
	case model.RoleDriver:
		err = s.loadDriverPending(ctx, *u)
	}
	if err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// RunReconciler reconciles every live session each interval until ctx is
// done.
func (m *SessionManager) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, s := range m.Sessions() {
				rctx, cancel := context.WithTimeout(ctx, interval)
				if err := s.Reconcile(rctx); err != nil {
					m.log.Warning("reconcile session", logger.String("sid", s.ID), logger.Error(err))
				}
				cancel()
			}
		}
	}
}
