package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/sakif/starwars-api/internal/apperror"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory implementation of the catalog, user and favorite
// repositories. It mirrors the contract of sqldb.DB: NotFound for missing
// rows, Conflict when (user_id, name) is already taken.
//
// Two knobs simulate failures that are hard to trigger against a real database:
//   - err: returned by every method (the database is down)
//   - beforeCreate: runs inside CreateFavorite before the uniqueness check,
//     so a test can sneak in a "concurrent" insert

var (
	_ repository.CatalogRepository  = (*fakeStore)(nil)
	_ repository.UserRepository     = (*fakeStore)(nil)
	_ repository.FavoriteRepository = (*fakeStore)(nil)
)

type fakeStore struct {
	mu         sync.Mutex
	planets    map[int64]model.Planet
	characters map[int64]model.Character
	users      map[int64]model.User
	favorites  []model.Favorite
	nextID     int64

	err          error
	beforeCreate func(s *fakeStore, fav *model.Favorite) error
	creates      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		planets: map[int64]model.Planet{
			1: {ID: 1, Name: "Tatooine"},
			2: {ID: 2, Name: "Alderaan"},
		},
		characters: map[int64]model.Character{
			1: {ID: 1, Name: "Luke Skywalker"},
		},
		users: map[int64]model.User{
			1: {ID: 1, Email: "luke@rebellion.org", IsActive: true},
		},
	}
}

func (s *fakeStore) ListPlanets(context.Context) ([]model.Planet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Planet{}
	for id := int64(1); id <= int64(len(s.planets)); id++ {
		out = append(out, s.planets[id])
	}
	return out, nil
}

func (s *fakeStore) GetPlanet(_ context.Context, id int64) (*model.Planet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.planets[id]
	if !ok {
		return nil, apperror.NotFound("planet", strconv.FormatInt(id, 10))
	}
	return &p, nil
}

func (s *fakeStore) ListCharacters(context.Context) ([]model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Character{}
	for id := int64(1); id <= int64(len(s.characters)); id++ {
		out = append(out, s.characters[id])
	}
	return out, nil
}

func (s *fakeStore) GetCharacter(_ context.Context, id int64) (*model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.characters[id]
	if !ok {
		return nil, apperror.NotFound("character", strconv.FormatInt(id, 10))
	}
	return &c, nil
}

func (s *fakeStore) ListUsers(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []model.User{}
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	return &u, nil
}

func (s *fakeStore) ListFavorites(context.Context) ([]model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.Favorite{}, s.favorites...), nil
}

func (s *fakeStore) ListFavoritesByUser(_ context.Context, userID int64) ([]model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Favorite{}
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) FindFavorite(_ context.Context, userID int64, name string) (*model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if i := s.indexOf(userID, name); i >= 0 {
		f := s.favorites[i]
		return &f, nil
	}
	return nil, apperror.NotFoundf("favorite %q not found for user %d", name, userID)
}

func (s *fakeStore) CreateFavorite(_ context.Context, fav *model.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.err != nil {
		return s.err
	}
	if s.beforeCreate != nil {
		if err := s.beforeCreate(s, fav); err != nil {
			return err
		}
	}
	if s.indexOf(fav.UserID, fav.Name) >= 0 {
		return apperror.Conflictf("favorite %q already exists for user %d", fav.Name, fav.UserID)
	}
	if _, ok := s.users[fav.UserID]; !ok {
		return apperror.NotFound("user", strconv.FormatInt(fav.UserID, 10))
	}
	s.insert(fav)
	return nil
}

func (s *fakeStore) DeleteFavorite(_ context.Context, userID int64, name string) (*model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	i := s.indexOf(userID, name)
	if i < 0 {
		return nil, apperror.NotFoundf("favorite %q not found for user %d", name, userID)
	}
	f := s.favorites[i]
	s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
	return &f, nil
}

// insert stores fav and assigns its id. Callers hold s.mu.
func (s *fakeStore) insert(fav *model.Favorite) {
	s.nextID++
	fav.ID = s.nextID
	s.favorites = append(s.favorites, *fav)
}

func (s *fakeStore) indexOf(userID int64, name string) int {
	for i, f := range s.favorites {
		if f.UserID == userID && f.Name == name {
			return i
		}
	}
	return -1
}

// =========================================================================
// LOGGER HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureLogger returns a JSON logger writing into buf, so tests can assert
// on the attributes of business events.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
