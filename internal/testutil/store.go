// Package testutil provides in-memory implementations of the ports for tests.
package testutil

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func NopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// Store keeps maps, throws, favorites and users in memory and implements every
// repository port. Calls counts repository calls by method name.
type Store struct {
	mu        sync.Mutex
	clock     time.Time
	maps      []models.Map
	throws    []models.GrenadeThrow
	favorites []models.UserFavorite
	users     []models.User

	Calls map[string]int
	// Fail makes the named method return the error.
	Fail map[string]error
}

func NewStore() *Store {
	return &Store{
		clock: time.Now().UTC(),
		Calls: map[string]int{},
		Fail:  map[string]error{},
	}
}

func (s *Store) enter(method string) error {
	s.Calls[method]++
	return s.Fail[method]
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Maps() ports.MapRepository           { return (*mapRepo)(s) }
func (s *Store) Throws() ports.ThrowRepository       { return (*throwRepo)(s) }
func (s *Store) Favorites() ports.FavoriteRepository { return (*favoriteRepo)(s) }
func (s *Store) Users() ports.UserRepository         { return (*userRepo)(s) }

// AddMap inserts a map directly and returns it.
func (s *Store) AddMap(m models.Map) models.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.tick()
	s.maps = append(s.maps, m)
	return m
}

// AddThrow inserts a throw directly and returns it.
func (s *Store) AddThrow(t models.GrenadeThrow) models.GrenadeThrow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addThrow(t)
}

func (s *Store) addThrow(t models.GrenadeThrow) models.GrenadeThrow {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.tick()
	}
	t.UpdatedAt = t.CreatedAt
	s.throws = append(s.throws, t)
	return t
}

func (s *Store) throwsOf(mapID string) []models.GrenadeThrow {
	out := []models.GrenadeThrow{}
	for _, t := range s.throws {
		if t.MapID == mapID {
			out = append(out, t)
		}
	}
	return out
}

type mapRepo Store

func (r *mapRepo) ListActiveWithThrows(ctx context.Context) ([]models.Map, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListActiveWithThrows"); err != nil {
		return nil, err
	}

	out := []models.Map{}
	for _, m := range s.maps {
		if !m.IsActive {
			continue
		}
		m.Throws = s.throwsOf(m.ID)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *mapRepo) GetWithThrows(ctx context.Context, id string) (*models.Map, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetWithThrows"); err != nil {
		return nil, err
	}

	for _, m := range s.maps {
		if m.ID == id {
			m.Throws = s.throwsOf(id)
			return &m, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *mapRepo) Count(ctx context.Context) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maps), s.enter("Count")
}

func (r *mapRepo) Insert(ctx context.Context, m *models.Map) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertMap"); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.tick()
	s.maps = append(s.maps, *m)
	return nil
}

type throwRepo Store

func (r *throwRepo) Insert(ctx context.Context, t *models.GrenadeThrow) (*models.GrenadeThrow, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertThrow"); err != nil {
		return nil, err
	}
	created := s.addThrow(*t)
	return &created, nil
}

func (r *throwRepo) GetByID(ctx context.Context, id string) (*models.GrenadeThrow, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetThrow"); err != nil {
		return nil, err
	}
	for _, t := range s.throws {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *throwRepo) List(ctx context.Context, mapID string) ([]models.GrenadeThrow, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListThrows"); err != nil {
		return nil, err
	}
	out := []models.GrenadeThrow{}
	for _, t := range s.throws {
		if mapID == "" || t.MapID == mapID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *throwRepo) ListByUser(ctx context.Context, userID string) ([]models.GrenadeThrow, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListUserThrows"); err != nil {
		return nil, err
	}
	out := []models.GrenadeThrow{}
	for _, t := range s.throws {
		if t.OwnedBy(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *throwRepo) Delete(ctx context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteThrow"); err != nil {
		return err
	}
	for i, t := range s.throws {
		if t.ID != id {
			continue
		}
		s.throws = append(s.throws[:i], s.throws[i+1:]...)

		kept := s.favorites[:0]
		for _, f := range s.favorites {
			if f.ThrowID != id {
				kept = append(kept, f)
			}
		}
		s.favorites = kept
		return nil
	}
	return ports.ErrNotFound
}

type favoriteRepo Store

func (r *favoriteRepo) ListByUser(ctx context.Context, userID string) ([]models.UserFavorite, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListFavorites"); err != nil {
		return nil, err
	}
	out := []models.UserFavorite{}
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *favoriteRepo) Exists(ctx context.Context, userID, throwID string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FavoriteExists"); err != nil {
		return false, err
	}
	for _, f := range s.favorites {
		if f.UserID == userID && f.ThrowID == throwID {
			return true, nil
		}
	}
	return false, nil
}

func (r *favoriteRepo) Insert(ctx context.Context, userID, throwID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertFavorite"); err != nil {
		return err
	}
	for _, f := range s.favorites {
		if f.UserID == userID && f.ThrowID == throwID {
			return ports.ErrConflict
		}
	}
	s.favorites = append(s.favorites, models.UserFavorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ThrowID:   throwID,
		CreatedAt: s.tick(),
	})
	return nil
}

func (r *favoriteRepo) Delete(ctx context.Context, userID, throwID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteFavorite"); err != nil {
		return err
	}
	for i, f := range s.favorites {
		if f.UserID == userID && f.ThrowID == throwID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}

type userRepo Store

func (r *userRepo) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertUser"); err != nil {
		return nil, err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, ports.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.tick()
	s.users = append(s.users, *u)
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ports.ErrNotFound
}

// Storage records uploads in memory and returns fake public URLs.
type Storage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewStorage() *Storage {
	return &Storage{Objects: map[string][]byte{}}
}

func (s *Storage) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[path] = b
	return "https://cdn.test/media/" + path, nil
}

func (s *Storage) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[path]; !ok {
		return ports.ErrNotFound
	}
	delete(s.Objects, path)
	return nil
}

func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Objects)
}
