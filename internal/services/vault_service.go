package services

import (
	"context"
	"fmt"
	"sync"

	"vaultscore/internal/cache"
	"vaultscore/internal/core"
	"vaultscore/internal/log"
	"vaultscore/internal/storage"
)

// Publisher announces committed deposits to other processes.
type Publisher interface {
	PublishDeposit(ctx context.Context, profileID string, d core.Deposit, total core.Money) error
}

// Subscriber is called after every committed change to a profile.
type Subscriber func(ctx context.Context, profileID string, profile core.VaultProfile)

// VaultService is the single entry point for reading and changing vault
// profiles. Writes to one profile are serialized; a change becomes visible only
// after the store accepted it.
type VaultService struct {
	store     storage.ProfileStore
	cache     cache.Cache[core.VaultProfile]
	publisher Publisher
	clock     core.Clock
	logger    *log.Logger
	events    *log.StructuredLogger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	subsMu      sync.RWMutex
	subscribers []Subscriber
}

// Option configures a VaultService
type Option func(*VaultService)

// WithCache keeps loaded profiles in c.
func WithCache(c cache.Cache[core.VaultProfile]) Option {
	return func(s *VaultService) { s.cache = c }
}

// WithPublisher publishes every recorded deposit through p.
func WithPublisher(p Publisher) Option {
	return func(s *VaultService) { s.publisher = p }
}

// WithClock overrides the wall clock.
func WithClock(c core.Clock) Option {
	return func(s *VaultService) { s.clock = c }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *VaultService) { s.logger = l }
}

func NewVaultService(store storage.ProfileStore, opts ...Option) *VaultService {
	s := &VaultService{
		store: store,
		clock: core.SystemClock{},
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Subscribe registers fn; subscribers run in registration order.
func (s *VaultService) Subscribe(fn Subscriber) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Clock is the time source every derived figure is computed against.
func (s *VaultService) Clock() core.Clock {
	return s.clock
}

// Profile returns a private copy of the stored profile.
func (s *VaultService) Profile(ctx context.Context, profileID string) (core.VaultProfile, error) {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return core.VaultProfile{}, err
	}
	return p.Clone(), nil
}

// Snapshot computes every dashboard figure at the current time.
func (s *VaultService) Snapshot(ctx context.Context, profileID string) (core.Snapshot, error) {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return core.Snapshot{}, err
	}
	return core.Snap(p.Clone(), s.clock.Now()), nil
}

// ResolveCurrentSlot returns the month-slot a deposit made now would fill.
// On a profile that has no start date yet, the first call anchors it at the
// current time and persists it before returning slot 0.
func (s *VaultService) ResolveCurrentSlot(ctx context.Context, profileID string) (int, error) {
	unlock := s.lock(profileID)
	defer unlock()

	current, err := s.load(ctx, profileID)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	if current.StartDate != nil {
		return core.CurrentSlot(current, now), nil
	}

	working := current.Clone()
	slot := core.ResolveCurrentSlot(&working, now)
	if err := s.commit(ctx, profileID, working); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Vault start date anchored",
		log.FieldProfileID, profileID,
		log.FieldMonthSlot, slot)
	return slot, nil
}

// Simulate previews withdrawing after months months.
func (s *VaultService) Simulate(ctx context.Context, profileID string, months int) (core.Simulation, error) {
	p, err := s.load(ctx, profileID)
	if err != nil {
		return core.Simulation{}, err
	}
	return core.Simulate(p.Deposits, months), nil
}

// RecordDeposit files amount under the current month-slot and persists it.
//
// Amount and slot errors come straight from the ledger. Storage failures wrap
// core.ErrPersistence and leave both the cache and the stored profile as they were.
func (s *VaultService) RecordDeposit(ctx context.Context, profileID string, amount core.Money) (core.Deposit, core.VaultProfile, error) {
	unlock := s.lock(profileID)
	defer unlock()

	current, err := s.load(ctx, profileID)
	if err != nil {
		return core.Deposit{}, core.VaultProfile{}, err
	}

	working := current.Clone()
	d, err := core.RecordDeposit(&working, amount, s.clock.Now())
	if err != nil {
		return core.Deposit{}, core.VaultProfile{}, err
	}

	if err := s.commit(ctx, profileID, working); err != nil {
		return core.Deposit{}, core.VaultProfile{}, err
	}

	s.events.LogDepositRecorded(ctx, profileID, d.MonthSlot, d.Amount.Cents, working.TotalDeposited.Cents)
	s.publish(ctx, profileID, d, working.TotalDeposited)

	return d, working.Clone(), nil
}

// Ready reports whether the underlying store is reachable.
func (s *VaultService) Ready(ctx context.Context) error {
	if p, ok := s.store.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *VaultService) load(ctx context.Context, profileID string) (core.VaultProfile, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(profileID); ok {
			return p, nil
		}
	}

	p, err := s.store.Load(ctx, profileID)
	if err != nil {
		s.events.LogError(ctx, "Failed to load profile", err, log.ComponentStorage, log.OpRead,
			log.NewFields().WithProfileID(profileID))
		return core.VaultProfile{}, fmt.Errorf("%w: load profile %s: %w", core.ErrPersistence, profileID, err)
	}

	if s.cache != nil {
		s.cache.Set(profileID, p.Clone())
	}
	return p, nil
}

// commit saves p, then publishes it to the cache and the subscribers.
func (s *VaultService) commit(ctx context.Context, profileID string, p core.VaultProfile) error {
	if err := s.store.Save(ctx, profileID, p); err != nil {
		if s.cache != nil {
			s.cache.Delete(profileID)
		}
		s.events.LogError(ctx, "Failed to save profile", err, log.ComponentStorage, log.OpCreate,
			log.NewFields().WithProfileID(profileID))
		return fmt.Errorf("%w: save profile %s: %w", core.ErrPersistence, profileID, err)
	}

	if s.cache != nil {
		s.cache.Set(profileID, p.Clone())
	}
	s.notify(ctx, profileID, p)
	return nil
}

func (s *VaultService) notify(ctx context.Context, profileID string, p core.VaultProfile) {
	s.subsMu.RLock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(ctx, profileID, p.Clone())
	}
}

func (s *VaultService) publish(ctx context.Context, profileID string, d core.Deposit, total core.Money) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping deposit event")
		return
	}
	// The deposit is already committed; a broker outage only delays the mirror.
	if err := s.publisher.PublishDeposit(ctx, profileID, d, total); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish deposit event",
			log.FieldProfileID, profileID,
			log.FieldMonthSlot, d.MonthSlot,
			log.FieldError, err)
	}
}

func (s *VaultService) lock(profileID string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[profileID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[profileID] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}
