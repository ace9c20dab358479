package menusync

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardapio/internal/domain"
	"cardapio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, seed []models.MenuItem) (*Service, *flakyBackend, *fakeClock, *memorySnapshot) {
	t.Helper()
	clock := newFakeClock()
	backend := newFlakyBackend(seed)
	snap := &memorySnapshot{}
	opts := testOptions(clock)
	opts.Snapshot = snap
	return NewService(backend, opts), backend, clock, snap
}

func TestService_ListAllUsesTTL(t *testing.T) {
	svc, backend, clock, snap := newTestService(t, seedItems())
	ctx := context.Background()

	items := svc.ListAll(ctx)
	assert.Len(t, items, 5)
	assert.Equal(t, int32(1), backend.calls.Load())
	assert.Equal(t, SourceRemote, svc.LastSource())
	assert.Len(t, snap.items, 5, "snapshot written after remote read")

	clock.Advance(29 * time.Second)
	svc.ListAll(ctx)
	assert.Equal(t, int32(1), backend.calls.Load(), "served from cache within TTL")

	clock.Advance(2 * time.Second)
	svc.ListAll(ctx)
	assert.Equal(t, int32(2), backend.calls.Load())

	svc.Invalidate()
	svc.ListAll(ctx)
	assert.Equal(t, int32(3), backend.calls.Load(), "invalidate expires the TTL")
}

func TestService_ListAllReturnsCopies(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	items := svc.ListAll(ctx)
	items[0].Name = "mutated"
	assert.NotEqual(t, "mutated", svc.ListAll(ctx)[0].Name)
}

func TestService_FallbackChain(t *testing.T) {
	ctx := context.Background()

	t.Run("Snapshot", func(t *testing.T) {
		svc, backend, _, snap := newTestService(t, seedItems())
		backend.down.Store(true)
		snap.items = seedItems()[:2]

		items := svc.ListAll(ctx)
		assert.Len(t, items, 2)
		assert.Equal(t, SourceSnapshot, svc.LastSource())
	})

	t.Run("StaleCache", func(t *testing.T) {
		svc, backend, clock, snap := newTestService(t, seedItems())
		require.Len(t, svc.ListAll(ctx), 5)

		backend.down.Store(true)
		snap.err = errors.New("disk gone")
		clock.Advance(time.Minute)

		items := svc.ListAll(ctx)
		assert.Len(t, items, 5)
		assert.Equal(t, SourceStale, svc.LastSource())
	})

	t.Run("Defaults", func(t *testing.T) {
		svc, backend, _, _ := newTestService(t, seedItems())
		backend.down.Store(true)

		items := svc.ListAll(ctx)
		require.Len(t, items, 4)
		assert.Equal(t, "X BACON DE GOLIATH", items[0].Name)
		assert.Equal(t, SourceDefault, svc.LastSource())
	})

	t.Run("SnapshotRetriedAfterFallback", func(t *testing.T) {
		svc, backend, _, _ := newTestService(t, seedItems())
		backend.down.Store(true)
		svc.ListAll(ctx)

		backend.down.Store(false)
		assert.Len(t, svc.ListAll(ctx), 5, "fallback data does not extend the TTL")
		assert.Equal(t, SourceRemote, svc.LastSource())
	})
}

func TestService_BreakerShortCircuits(t *testing.T) {
	svc, backend, clock, _ := newTestService(t, seedItems())
	ctx := context.Background()
	backend.down.Store(true)

	for i := 0; i < 3; i++ {
		svc.ListAll(ctx)
	}
	assert.Equal(t, StateOpen, svc.Breaker().State())
	// 2 attempts per failed operation
	assert.Equal(t, int32(6), backend.calls.Load())

	clock.Advance(time.Millisecond)
	items := svc.ListAll(ctx)
	assert.NotEmpty(t, items)
	assert.Equal(t, int32(6), backend.calls.Load(), "no network call while open")

	backend.down.Store(false)
	clock.Advance(30 * time.Second)
	assert.Len(t, svc.ListAll(ctx), 5)
	assert.Equal(t, int32(7), backend.calls.Load(), "probe allowed after timeout")
	assert.Equal(t, StateClosed, svc.Breaker().State())
}

func TestService_CreateThenGet(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	res, err := svc.Create(ctx, models.MenuItemInput{
		Name: "X", Description: "d", Price: price(10), Category: "burger", Featured: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, int64(6), res.Item.ID)

	got, err := svc.GetByID(ctx, res.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", got.Name)
	assert.Equal(t, "d", got.Description)
	assert.Equal(t, 10.0, got.Price)
	assert.Equal(t, "burger", got.Category)
	assert.True(t, got.Featured)
	assert.Equal(t, models.DefaultItemImage, got.Image)
	assert.Equal(t, models.DefaultItemOrder, got.Order)
	assert.True(t, got.Available)
	assert.True(t, got.Active)
	assert.Positive(t, got.ID)
}

func TestService_CreateValidation(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	tests := []struct {
		name string
		item models.MenuItemInput
	}{
		{"missing name", models.MenuItemInput{Description: "d", Category: "c", Price: price(1)}},
		{"missing description", models.MenuItemInput{Name: "n", Category: "c", Price: price(1)}},
		{"missing category", models.MenuItemInput{Name: "n", Description: "d", Price: price(1)}},
		{"missing price", models.MenuItemInput{Name: "n", Description: "d", Category: "c"}},
		{"negative price", models.MenuItemInput{Name: "n", Description: "d", Category: "c", Price: price(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.item)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, int32(0), backend.calls.Load(), "validation happens before any backend call")
}

func TestService_CreateDegraded(t *testing.T) {
	svc, backend, _, snap := newTestService(t, seedItems())
	ctx := context.Background()
	svc.ListAll(ctx)
	backend.down.Store(true)

	res, err := svc.Create(ctx, models.MenuItemInput{Name: "Local", Description: "d", Price: price(5), Category: "c"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, int64(6), res.Item.ID, "max existing id + 1")

	got, err := svc.GetByID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "Local", got.Name)
	assert.Len(t, snap.items, 6, "degraded write persisted to snapshot")
}

func TestService_SoftRemove(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	res, err := svc.SoftRemove(ctx, 2)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.False(t, res.Item.Active)

	for _, item := range svc.ListActive(ctx) {
		assert.NotEqual(t, int64(2), item.ID)
	}
	found := false
	for _, item := range svc.ListAll(ctx) {
		if item.ID == 2 {
			found = true
			assert.False(t, item.Active)
		}
	}
	assert.True(t, found, "soft-deleted item stays in ListAll")
}

func TestService_PatchValidationAndNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	_, err := svc.Patch(ctx, 1, models.MenuItemPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	neg := -3.0
	_, err = svc.Patch(ctx, 1, models.MenuItemPatch{Price: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	blank := "  "
	_, err = svc.Patch(ctx, 1, models.MenuItemPatch{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	price := 1.0
	_, err = svc.Patch(ctx, 404, models.MenuItemPatch{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_PatchRemoteNotFoundDropsCache(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	svc.ListAll(ctx)

	require.NoError(t, backend.MemoryMenuBackend.Delete(ctx, 3))

	price := 1.0
	_, err := svc.Patch(ctx, 3, models.MenuItemPatch{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StateClosed, svc.Breaker().State(), "not found is not a backend failure")
}

func TestService_GetByIDResyncsOnMiss(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	svc.ListAll(ctx)

	// written by another instance
	created, err := backend.MemoryMenuBackend.Insert(ctx, models.MenuItem{Name: "Novo", Active: true, Available: true})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Novo", got.Name)
}

func TestService_GetByIDNoResyncWhileOpen(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	backend.down.Store(true)
	for i := 0; i < 3; i++ {
		svc.ListAll(ctx)
	}
	calls := backend.calls.Load()

	_, err := svc.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, calls, backend.calls.Load())
}

func TestService_HardRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("Remote", func(t *testing.T) {
		svc, backend, _, _ := newTestService(t, seedItems())
		res, err := svc.HardRemove(ctx, 4)
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Equal(t, int64(4), res.Item.ID)

		_, err = svc.GetByID(ctx, 4)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, backend.MemoryMenuBackend.Delete(ctx, 4), domain.ErrNotFound)
	})

	t.Run("Degraded", func(t *testing.T) {
		svc, backend, _, _ := newTestService(t, seedItems())
		svc.ListAll(ctx)
		backend.down.Store(true)

		res, err := svc.HardRemove(ctx, 4)
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		for _, item := range svc.ListAll(ctx) {
			assert.NotEqual(t, int64(4), item.ID)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		svc, _, _, _ := newTestService(t, seedItems())
		_, err := svc.HardRemove(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_HashAndFingerprint(t *testing.T) {
	svc, _, clock, _ := newTestService(t, seedItems())
	ctx := context.Background()

	h1 := svc.CurrentHash(ctx)
	fp := svc.SyncFingerprint(ctx)
	assert.Equal(t, h1, fp.Hash)
	assert.Equal(t, 5, fp.ItemCount)
	assert.Equal(t, clock.Now(), fp.Timestamp)

	price := 99.0
	_, err := svc.Patch(ctx, 1, models.MenuItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, h1, svc.CurrentHash(ctx), "price edit keeps hash")

	clock.Advance(time.Second)
	_, err = svc.SoftRemove(ctx, 1)
	require.NoError(t, err)
	h2 := svc.CurrentHash(ctx)
	assert.NotEqual(t, h1, h2)
	assert.True(t, svc.SyncFingerprint(ctx).Timestamp.After(fp.Timestamp))
}

func TestService_Status(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	svc.ListAll(context.Background())

	st := svc.Status()
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, SourceRemote, st.Source)
	assert.Equal(t, StateClosed, st.BreakerState)
	assert.Equal(t, 5, st.CachedItems)
}

func TestService_Refresh(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	backend.down.Store(true)
	err := svc.Refresh(ctx)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestScenario_CreateVisibleInListActive(t *testing.T) {
	svc, _, _, _ := newTestService(t, seedItems())
	ctx := context.Background()

	res, err := svc.Create(ctx, models.MenuItemInput{Name: "X", Price: price(10), Category: "burger", Description: "d"})
	require.NoError(t, err)

	var found bool
	for _, item := range svc.ListActive(ctx) {
		if item.ID == res.Item.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScenario_DegradedPatchThenRemoteWins(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	svc.ListAll(ctx)
	backend.down.Store(true)

	price := 12.0
	res, err := svc.Patch(ctx, 5, models.MenuItemPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, res.Degraded)

	got, err := svc.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Price)

	backend.down.Store(false)
	require.NoError(t, svc.Refresh(ctx))
	got, err = svc.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Price, "remote truth wins after resync")
}

func TestScenario_HardRemoveStaleItem(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx := context.Background()
	svc.ListAll(ctx)

	// another instance already deleted it
	require.NoError(t, backend.MemoryMenuBackend.Delete(ctx, 5))

	_, err := svc.HardRemove(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

// gatedBackend reads the list, then holds the answer until released.
type gatedBackend struct {
	*flakyBackend
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBackend) List(ctx context.Context) ([]models.MenuItem, error) {
	items, err := b.flakyBackend.List(ctx)
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return items, err
}

func TestService_ConcurrentMissesShareOneCall(t *testing.T) {
	clock := newFakeClock()
	backend := &gatedBackend{
		flakyBackend: newFlakyBackend(seedItems()),
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := NewService(backend, testOptions(clock))
	ctx := context.Background()

	const readers = 5
	results := make(chan int, readers)
	for i := 0; i < readers; i++ {
		go func() { results <- len(svc.ListAll(ctx)) }()
	}

	<-backend.entered
	time.Sleep(100 * time.Millisecond)
	close(backend.release)

	for i := 0; i < readers; i++ {
		assert.Equal(t, 5, <-results)
	}
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestService_CancelledCallersDoNotTripBreaker(t *testing.T) {
	svc, backend, _, _ := newTestService(t, seedItems())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		svc.ListAll(ctx)
		svc.Invalidate()
	}
	assert.Equal(t, StateClosed, svc.Breaker().State())
	assert.Zero(t, svc.Breaker().Failures())

	res, err := svc.Create(ctx, models.MenuItemInput{Name: "X", Description: "d", Price: price(1), Category: "c"})
	require.NoError(t, err)
	assert.True(t, res.Degraded, "write not confirmed by the backend")
	assert.Equal(t, StateClosed, svc.Breaker().State())

	backend.down.Store(true)
	svc.Invalidate()
	for i := 0; i < 3; i++ {
		svc.ListAll(context.Background())
		svc.Invalidate()
	}
	assert.Equal(t, StateOpen, svc.Breaker().State(), "real failures still open it")
}

func TestService_ListReadDoesNotOverwriteConcurrentWrite(t *testing.T) {
	clock := newFakeClock()
	backend := &gatedBackend{
		flakyBackend: newFlakyBackend(seedItems()),
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := NewService(backend, testOptions(clock))
	ctx := context.Background()

	close(backend.release)
	svc.ListAll(ctx)
	<-backend.entered
	backend.release = make(chan struct{})
	svc.Invalidate()

	done := make(chan struct{})
	go func() {
		svc.ListAll(ctx)
		close(done)
	}()
	<-backend.entered

	// the backend's list snapshot predates this write
	_, err := svc.Patch(ctx, 1, models.MenuItemPatch{Name: strPtr("Renamed")})
	require.NoError(t, err)
	close(backend.release)
	<-done

	got, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func price(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
