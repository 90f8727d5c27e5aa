package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/moderation"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/storage"
	"github.com/iliyamo/carpool-gateway/internal/store"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Backends   Backends
	KV         storage.KV
	Moderation moderation.Checker
	Notifier   Notifier
	Validate   *validator.Validate
	Log        logger.ILogger
	// FetchLimit bounds concurrent id lookups in the entity caches.
	FetchLimit int
}

// Session is the state of one signed-in client: its stores, its join
// caches and the adapters the workflows go through. A Session is safe for
// concurrent use; workflows are serialized by the backend, stores by their
// own locks.
type Session struct {
	ID string

	Auth          *store.AuthStore
	Rides         *store.RidesStore
	Bookings      *store.BookingsStore
	Notifications *store.NotificationsStore
	User          *store.UserStore

	users      *store.EntityCache[string, model.User]
	rideByID   *store.EntityCache[string, model.Ride]
	rideCounts *store.EntityCache[string, int]

	be       Backends
	mod      moderation.Checker
	notifier Notifier
	validate *validator.Validate
	log      logger.ILogger

	mu      sync.Mutex
	touched map[string]struct{}
	lastUse time.Time
}

// NewSession builds the session sid, rehydrating its identity and the
// viewer's preferences from durable storage.
func NewSession(ctx context.Context, sid string, d Deps) *Session {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("session")
	v := d.Validate
	if v == nil {
		v = validator.New()
	}
	mod := d.Moderation
	if mod == nil {
		mod = &moderation.Static{Verdict: moderation.Unavailable}
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if d.KV == nil {
		d.KV = storage.NewMemory()
	}

	s := &Session{
		ID:       sid,
		Auth:     store.NewAuthStore(ctx, d.KV, sid, log),
		Rides:    store.NewRidesStore(),
		Bookings: store.NewBookingsStore(),
		User:     store.NewUserStore(d.KV, log),
		be:       d.Backends,
		mod:      mod,
		notifier: notifier,
		validate: v,
		log:      log,
		touched:  make(map[string]struct{}),
		lastUse:  time.Now(),
	}
	s.Notifications = store.NewNotificationsStore(s.Auth)

	s.users = store.NewEntityCache[string, model.User](func(ctx context.Context, id string) (model.User, error) {
		return s.be.Auth.GetUserByID(s.withToken(ctx), id)
	}, d.FetchLimit)
	s.rideByID = store.NewEntityCache[string, model.Ride](func(ctx context.Context, id string) (model.Ride, error) {
		r, err := s.be.Rides.Get(s.withToken(ctx), id)
		if err != nil {
			return model.Ride{}, err
		}
		if r == nil {
			return model.Ride{}, ErrNotFound
		}
		return *r, nil
	}, d.FetchLimit)
	s.rideCounts = store.NewEntityCache[string, int](func(ctx context.Context, driverID string) (int, error) {
		rides, err := s.be.Rides.ListByDriver(s.withToken(ctx), driverID)
		return len(rides), err
	}, d.FetchLimit)

	if u := s.Auth.CurrentUser(); u != nil {
		s.User.SetProfile(ctx, *u)
		s.users.Put(u.ID, *u)
	}
	return s
}

// withToken attaches the session's backend token to ctx.
func (s *Session) withToken(ctx context.Context) context.Context {
	return repository.WithToken(ctx, s.Auth.Token())
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUse = time.Now()
	s.mu.Unlock()
}

// IdleSince is the last time a workflow ran on the session.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUse
}

// requireUser returns the signed-in user or ErrNotAuthenticated.
func (s *Session) requireUser() (model.User, error) {
	s.touch()
	u := s.Auth.CurrentUser()
	if u == nil {
		return model.User{}, ErrNotAuthenticated
	}
	return *u, nil
}

// requireRole also checks the user's role.
func (s *Session) requireRole(r model.Role) (model.User, error) {
	u, err := s.requireUser()
	if err != nil {
		return u, err
	}
	if u.Role != r {
		return u, ErrForbidden
	}
	return u, nil
}

// WatchChanges calls fn with the name of every store that changes until
// the returned func is called.
func (s *Session) WatchChanges(fn func(store.Change)) func() {
	unsubs := []func(){
		s.Auth.Subscribe(func(store.AuthState) { fn(store.ChangeAuth) }),
		s.Rides.Subscribe(func(store.RidesState) { fn(store.ChangeRides) }),
		s.Bookings.Subscribe(func(store.BookingsState) { fn(store.ChangeBookings) }),
		s.Notifications.Subscribe(func(store.NotificationsState) { fn(store.ChangeNotifications) }),
		s.User.Subscribe(func(store.UserState) { fn(store.ChangeUser) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// close releases the session's subscriptions.
func (s *Session) close() {
	s.Notifications.Close()
}

// resolveUsers fills the user cache for ids and returns what resolved.
// Failures are logged; missing users are simply absent.
func (s *Session) resolveUsers(ctx context.Context, ids []string) map[string]model.User {
	m, err := s.users.Get(ctx, ids...)
	if err != nil {
		s.log.Warning("some users could not be resolved", logger.Int("requested", len(ids)), logger.Error(err))
	}
	return m
}

func (s *Session) resolveRides(ctx context.Context, ids []string) map[string]model.Ride {
	m, err := s.rideByID.Get(ctx, ids...)
	if err != nil {
		s.log.Warning("some rides could not be resolved", logger.Int("requested", len(ids)), logger.Error(err))
	}
	return m
}

// rememberRide records the latest known state of a ride in the store and
// the cache. An existing store entry is patched in place; a ride coming
// back from the backend without a driver profile keeps the joined one.
func (s *Session) rememberRide(r model.Ride) {
	if r.Driver == nil || r.Driver.Name == "" {
		if u, ok := s.users.Peek(r.DriverID); ok {
			d := u
			r.Driver = &d
		}
	}
	s.rideByID.Put(r.ID, r)
	if _, ok := s.Rides.Ride(r.ID); ok {
		s.Rides.UpdateRide(r.ID, model.RidePatch{
			AvailableSeats: &r.AvailableSeats,
			TotalSeats:     &r.TotalSeats,
			Status:         &r.Status,
		})
		return
	}
	s.Rides.PutRide(r)
}

// withDriver joins the driver profile into r from the user cache.
func withDriver(r model.Ride, users map[string]model.User) model.Ride {
	if u, ok := users[r.DriverID]; ok {
		d := u
		r.Driver = &d
	}
	return r
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
