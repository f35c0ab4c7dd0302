package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"vaultscore/internal/cache"
	"vaultscore/internal/core"
	"vaultscore/internal/storage/memory"
)

var t0 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(months int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, months, 0)
}

// flakyStore wraps the memory store and fails on demand.
type flakyStore struct {
	*memory.Store
	failSave bool
	failLoad bool
	saves    int
}

func (f *flakyStore) Load(ctx context.Context, id string) (core.VaultProfile, error) {
	if f.failLoad {
		return core.VaultProfile{}, errors.New("disk unavailable")
	}
	return f.Store.Load(ctx, id)
}

func (f *flakyStore) Save(ctx context.Context, id string, p core.VaultProfile) error {
	if f.failSave {
		return errors.New("disk full")
	}
	f.saves++
	return f.Store.Save(ctx, id, p)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Deposit
	err    error
}

func (r *recordingPublisher) PublishDeposit(_ context.Context, _ string, d core.Deposit, _ core.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return r.err
}

func newTestService(t *testing.T, opts ...Option) (*VaultService, *flakyStore, *stepClock) {
	t.Helper()
	store := &flakyStore{Store: memory.NewStore()}
	clock := &stepClock{t: t0}
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewVaultService(store, opts...), store, clock
}

func TestRecordDepositEndToEnd(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, store, clock := newTestService(t, WithPublisher(pub))

	if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	clock.advance(1)
	d, p, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000})
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if d.MonthSlot != 1 || p.TotalDeposited.Cents != 15000 {
		t.Fatalf("unexpected result: %+v / %+v", d, p)
	}

	snap, err := svc.Snapshot(ctx, "default")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.CreditImpact != 16 || snap.MonthsCompleted != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	sim, err := svc.Simulate(ctx, "default", 2)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if math.Abs(sim.Deposited-150) > 1e-9 || math.Abs(sim.Penalty-15) > 1e-9 || math.Abs(sim.Total-135) > 1e-9 {
		t.Fatalf("unexpected simulation: %+v", sim)
	}

	stored, _ := store.Store.Load(ctx, "default")
	if stored.TotalDeposited.Cents != 15000 {
		t.Fatalf("expected deposits persisted, got %+v", stored)
	}
	if len(pub.events) != 2 || pub.events[1].MonthSlot != 1 {
		t.Fatalf("expected two published events, got %+v", pub.events)
	}
}

func TestResolveCurrentSlotAnchorsOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t)
	clock.t = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	slot, err := svc.ResolveCurrentSlot(ctx, "default")
	if err != nil || slot != 0 {
		t.Fatalf("first resolve: slot %d, err %v", slot, err)
	}
	if store.saves != 1 {
		t.Fatalf("expected the anchor to be saved once, got %d saves", store.saves)
	}
	stored, _ := store.Store.Load(ctx, "default")
	if stored.StartDate == nil || !stored.StartDate.Equal(clock.Now()) {
		t.Fatalf("start date not anchored: %v", stored.StartDate)
	}

	clock.advance(1)
	slot, err = svc.ResolveCurrentSlot(ctx, "default")
	if err != nil || slot != 1 {
		t.Fatalf("second resolve: slot %d, err %v", slot, err)
	}
	if store.saves != 1 {
		t.Fatalf("an anchored profile must not be saved again, got %d saves", store.saves)
	}

	d, p, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if d.MonthSlot != 1 {
		t.Fatalf("deposit made a month after opening filed in slot %d, want 1", d.MonthSlot)
	}
	if got := core.Snap(p, clock.Now()).Board[0].Status; got != core.StatusMissed {
		t.Fatalf("first month status %q, want missed", got)
	}
}

func TestResolveCurrentSlotSaveFailureLeavesProfileUnanchored(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	store.failSave = true

	if _, err := svc.ResolveCurrentSlot(ctx, "default"); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	p, err := svc.Profile(ctx, "default")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.StartDate != nil {
		t.Fatalf("unsaved anchor leaked: %v", p.StartDate)
	}
}

func TestRecordDepositValidationSavesNothing(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, store, _ := newTestService(t, WithPublisher(pub))

	for _, cents := range []int64{2499, 100001} {
		if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: cents}); err == nil {
			t.Fatalf("expected %d to be rejected", cents)
		}
	}
	if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 100}); !errors.Is(err, core.ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if store.saves != 0 || len(pub.events) != 0 {
		t.Fatalf("rejected amounts must not be saved or published")
	}
	p, _ := svc.Profile(ctx, "default")
	if p.StartDate != nil {
		t.Fatalf("rejected amounts must not start the vault")
	}
}

func TestRecordDepositSlotConflict(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000}); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	_, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000})
	if !errors.Is(err, core.ErrSlotAlreadyFilled) {
		t.Fatalf("expected ErrSlotAlreadyFilled, got %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("conflict must not save again, saves=%d", store.saves)
	}
	p, _ := svc.Profile(ctx, "default")
	if p.TotalDeposited.Cents != 5000 {
		t.Fatalf("ledger changed after conflict: %+v", p)
	}
}

func TestRecordDepositPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	c := cache.NewProfileCache(10, time.Minute)
	svc, store, _ := newTestService(t, WithPublisher(pub), WithCache(c))

	var notified int
	svc.Subscribe(func(context.Context, string, core.VaultProfile) { notified++ })

	store.failSave = true
	_, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000})
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if notified != 0 || len(pub.events) != 0 {
		t.Fatalf("failed commits must not notify or publish")
	}

	store.failSave = false
	p, err := svc.Profile(ctx, "default")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.FilledSlots() != 0 || p.StartDate != nil {
		t.Fatalf("failed commit leaked into reads: %+v", p)
	}
}

func TestLoadFailureWrapsPersistence(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failLoad = true
	if _, err := svc.Snapshot(context.Background(), "default"); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestPublishFailureDoesNotFailDeposit(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _, _ := newTestService(t, WithPublisher(pub))

	if _, _, err := svc.RecordDeposit(context.Background(), "default", core.Money{Cents: 5000}); err != nil {
		t.Fatalf("publish failure should be swallowed, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one publish attempt")
	}
}

func TestSubscribersRunInOrderAfterCommit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	var order []string
	svc.Subscribe(func(_ context.Context, id string, p core.VaultProfile) {
		if store.saves != 1 {
			t.Errorf("subscriber ran before the save")
		}
		order = append(order, "dashboard:"+id)
	})
	svc.Subscribe(func(_ context.Context, _ string, p core.VaultProfile) {
		if p.TotalDeposited.Cents != 5000 {
			t.Errorf("subscriber saw %d cents", p.TotalDeposited.Cents)
		}
		// Mutating the notified copy must not reach the service.
		p.Deposits[7] = core.Deposit{}
		order = append(order, "tracker")
	})

	if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000}); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	if len(order) != 2 || order[0] != "dashboard:default" || order[1] != "tracker" {
		t.Fatalf("unexpected notification order: %v", order)
	}
	if p, _ := svc.Profile(ctx, "default"); p.FilledSlots() != 1 {
		t.Fatalf("subscriber mutation leaked: %d slots", p.FilledSlots())
	}
}

func TestCacheServesReads(t *testing.T) {
	ctx := context.Background()
	c := cache.NewProfileCache(10, time.Minute)
	svc, store, _ := newTestService(t, WithCache(c))

	if _, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 5000}); err != nil {
		t.Fatalf("RecordDeposit: %v", err)
	}
	store.failLoad = true
	if _, err := svc.Snapshot(ctx, "default"); err != nil {
		t.Fatalf("expected cached read, got %v", err)
	}
}

func TestConcurrentDepositsSameSlot(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.RecordDeposit(ctx, "default", core.Money{Cents: 2500})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrSlotAlreadyFilled):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != 15 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
	}
	if p, _ := store.Store.Load(ctx, "default"); p.TotalDeposited.Cents != 2500 {
		t.Fatalf("unexpected stored total %d", p.TotalDeposited.Cents)
	}
}

func TestReady(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
}
