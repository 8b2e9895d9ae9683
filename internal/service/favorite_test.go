package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/starwars-api/internal/apperror"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository/sqldb"
)

func newTestLedger(t *testing.T) (*FavoriteService, *fakeStore, *bytes.Buffer) {
	t.Helper()
	store := newFakeStore()
	logs := &bytes.Buffer{}
	return NewFavoriteService(store, store, store, captureLogger(logs)), store, logs
}

// =========================================================================
// ADD TESTS
// =========================================================================

func TestAdd_CreatesFavorite(t *testing.T) {
	svc, store, _ := newTestLedger(t)

	fav, created, err := svc.Add(context.Background(), 1, model.KindPlanet, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Tatooine", fav.Name)
	assert.Equal(t, int64(1), fav.UserID)
	assert.Equal(t, model.KindPlanet, fav.Kind)
	assert.Equal(t, int64(1), fav.EntityID)
	assert.Len(t, store.favorites, 1)
}

func TestAdd_SecondCallReturnsExisting(t *testing.T) {
	svc, store, logs := newTestLedger(t)
	ctx := context.Background()

	first, created, err := svc.Add(ctx, 1, model.KindCharacter, 1)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Add(ctx, 1, model.KindCharacter, 1)
	require.NoError(t, err)
	assert.False(t, created, "second add must report already exists")
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, store.favorites, 1)
	assert.Equal(t, 1, store.creates, "pre-check should skip the insert")
	assert.Contains(t, logs.String(), "favorite already exists")
}

func TestAdd_EntityMissing(t *testing.T) {
	svc, store, logs := newTestLedger(t)

	_, _, err := svc.Add(context.Background(), 1, model.KindPlanet, 404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, store.favorites)
	assert.Contains(t, logs.String(), `"reason":"`+ReasonEntityMissing+`"`)
}

func TestAdd_Validation(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int64
		kind   model.Kind
		id     int64
	}{
		{"zero entity id", 1, model.KindPlanet, 0},
		{"negative entity id", 1, model.KindCharacter, -1},
		{"zero user", 0, model.KindPlanet, 1},
		{"unknown kind", 1, model.Kind("starship"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Add(ctx, tt.userID, tt.kind, tt.id)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestAdd_UnknownUser(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	_, _, err := svc.Add(context.Background(), 42, model.KindPlanet, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// A concurrent request wins the insert between our lookup and our insert.
// The constraint rejects ours; Add must answer with the winner's row.
func TestAdd_LostRaceReturnsWinner(t *testing.T) {
	svc, store, logs := newTestLedger(t)

	var winner model.Favorite
	store.beforeCreate = func(s *fakeStore, fav *model.Favorite) error {
		s.beforeCreate = nil
		winner = model.Favorite{Name: fav.Name, UserID: fav.UserID, Kind: fav.Kind, EntityID: fav.EntityID}
		s.insert(&winner)
		return nil
	}

	fav, created, err := svc.Add(context.Background(), 1, model.KindPlanet, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, fav.ID)
	assert.Len(t, store.favorites, 1)
	assert.Contains(t, logs.String(), `"after_conflict":true`)
}

// The winner was deleted again before the retry lookup: surface the conflict.
func TestAdd_ConflictWithoutWinner(t *testing.T) {
	svc, store, _ := newTestLedger(t)
	store.beforeCreate = func(_ *fakeStore, fav *model.Favorite) error {
		return apperror.Conflictf("favorite %q already exists for user %d", fav.Name, fav.UserID)
	}

	_, _, err := svc.Add(context.Background(), 1, model.KindPlanet, 1)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Empty(t, store.favorites)
}

func TestAdd_StoreFailure(t *testing.T) {
	svc, store, logs := newTestLedger(t)
	store.beforeCreate = func(*fakeStore, *model.Favorite) error {
		return errors.New("disk I/O error")
	}

	_, _, err := svc.Add(context.Background(), 1, model.KindPlanet, 1)
	assert.ErrorIs(t, err, apperror.ErrStore)
	assert.Empty(t, store.favorites)
	assert.Contains(t, logs.String(), "disk I/O error", "the cause is logged")
}

// =========================================================================
// REMOVE TESTS
// =========================================================================

func TestRemove_ThenList(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, 1, model.KindPlanet, 1)
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, 1, model.KindPlanet, 2)
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, 1, model.KindPlanet, 1)
	require.NoError(t, err)
	assert.Equal(t, "Tatooine", removed.Name)

	favorites, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	for _, f := range favorites {
		assert.NotEqual(t, "Tatooine", f.Name)
	}
	assert.Len(t, favorites, 1)
}

func TestRemove_NotFoundReasons(t *testing.T) {
	t.Run("entity missing", func(t *testing.T) {
		svc, _, logs := newTestLedger(t)

		_, err := svc.Remove(context.Background(), 1, model.KindCharacter, 99)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Contains(t, logs.String(), `"reason":"`+ReasonEntityMissing+`"`)
		assert.NotContains(t, logs.String(), ReasonFavoriteMissing)
	})

	t.Run("favorite missing", func(t *testing.T) {
		svc, store, logs := newTestLedger(t)
		_, _, err := svc.Add(context.Background(), 1, model.KindPlanet, 2)
		require.NoError(t, err)

		_, err = svc.Remove(context.Background(), 1, model.KindPlanet, 1)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Contains(t, logs.String(), `"reason":"`+ReasonFavoriteMissing+`"`)
		assert.Len(t, store.favorites, 1, "store must be unchanged")
	})
}

func TestRemove_StoreFailure(t *testing.T) {
	svc, store, _ := newTestLedger(t)
	_, _, err := svc.Add(context.Background(), 1, model.KindPlanet, 1)
	require.NoError(t, err)

	store.err = errors.New("connection refused")
	_, err = svc.Remove(context.Background(), 1, model.KindPlanet, 1)
	assert.ErrorIs(t, err, apperror.ErrStore)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListAll_AndForUser(t *testing.T) {
	svc, store, _ := newTestLedger(t)
	ctx := context.Background()
	store.users[2] = model.User{ID: 2, Email: "leia@rebellion.org", IsActive: true}

	_, _, err := svc.Add(ctx, 1, model.KindPlanet, 1)
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, 2, model.KindPlanet, 2)
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Alderaan", mine[0].Name)

	_, err = svc.ListForUser(ctx, 77)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// CONCURRENCY (real store)
// =========================================================================

// Many goroutines favoriting the same planet at once must leave exactly one
// row, and every caller must get that row back.
func TestAdd_ConcurrentAgainstSQLite(t *testing.T) {
	db, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.SeedPlanet(ctx, &model.Planet{ID: 1, Name: "Tatooine"}))
	require.NoError(t, db.SeedUser(ctx, &model.User{ID: 1, Email: "luke@rebellion.org", Password: "x", IsActive: true}))

	svc := NewFavoriteService(db, db, db, discardLogger())

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]bool{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fav, isNew, err := svc.Add(ctx, 1, model.KindPlanet, 1)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if isNew {
				created++
			}
			ids[fav.ID] = true
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1, "every caller must see the same favorite")

	favorites, err := db.ListFavoritesByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
}
