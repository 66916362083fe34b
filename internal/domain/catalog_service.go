package domain

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/metrics"
	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Query cache keys. Clients receive the same names in invalidation events.
const (
	KeyMaps          = "maps"
	KeyMap           = "map"
	KeyGrenadeThrows = "grenade-throws"
	KeyUserFavorites = "user-favorites"

	RoomMaps = "maps"
)

func MapRoom(mapID string) string { return "map:" + mapID }

type CatalogService struct {
	maps      ports.MapRepository
	throws    ports.ThrowRepository
	favorites ports.FavoriteRepository
	storage   ports.MediaStorage

	cache   *cache.Cache
	log     *logger.ZapLogger
	metrics *metrics.Metrics

	// cacheMu orders stores against invalidations; gen counts invalidations.
	cacheMu sync.Mutex
	gen     uint64

	mu     sync.RWMutex
	closed bool
	events chan ports.Invalidation
}

func NewCatalogService(
	maps ports.MapRepository,
	throws ports.ThrowRepository,
	favorites ports.FavoriteRepository,
	storage ports.MediaStorage,
	ttl time.Duration,
	log *logger.ZapLogger,
	m *metrics.Metrics,
) *CatalogService {
	return &CatalogService{
		maps:      maps,
		throws:    throws,
		favorites: favorites,
		storage:   storage,
		cache:     cache.New(ttl, 2*ttl),
		log:       log,
		metrics:   m,
		events:    make(chan ports.Invalidation, 100),
	}
}

func (s *CatalogService) Events() <-chan ports.Invalidation { return s.events }

// cached returns the value under key, loading and storing it on a miss.
// A load that overlaps an invalidation is returned but not stored.
func cached[T any](s *CatalogService, key string, load func() (T, error)) (T, error) {
	prefix, _, _ := strings.Cut(key, ":")
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(prefix, true)
		return v.(T), nil
	}
	s.metrics.CacheLookup(prefix, false)

	s.cacheMu.Lock()
	gen := s.gen
	s.cacheMu.Unlock()

	v, err := load()
	if err != nil {
		return v, err
	}

	s.cacheMu.Lock()
	if s.gen == gen {
		s.cache.SetDefault(key, v)
	}
	s.cacheMu.Unlock()
	return v, nil
}

// invalidate drops every cached entry whose key equals or starts with one of prefixes.
func (s *CatalogService) invalidate(prefixes ...string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++

	for key := range s.cache.Items() {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+":") {
				s.cache.Delete(key)
				break
			}
		}
	}
}

// Close ends the event stream. Later mutations no longer publish.
func (s *CatalogService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

func (s *CatalogService) publish(room string, keys ...string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.events <- ports.Invalidation{Room: room, Keys: keys}:
	default:
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "invalidation dropped",
			Fields:  map[string]any{"room": room, "keys": keys},
		})
	}
}

func (s *CatalogService) ListMaps(ctx context.Context) ([]models.Map, error) {
	return cached(s, KeyMaps, func() ([]models.Map, error) {
		maps, err := s.maps.ListActiveWithThrows(ctx)
		if err != nil {
			return nil, fmt.Errorf("list maps: %w", err)
		}
		return maps, nil
	})
}

func (s *CatalogService) GetMap(ctx context.Context, id string) (*models.Map, error) {
	return cached(s, KeyMap+":"+id, func() (*models.Map, error) {
		m, err := s.maps.GetWithThrows(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get map %s: %w", id, err)
		}
		return m, nil
	})
}

func (s *CatalogService) ListThrows(ctx context.Context, mapID string) ([]models.GrenadeThrow, error) {
	return cached(s, KeyGrenadeThrows+":map:"+mapID, func() ([]models.GrenadeThrow, error) {
		throws, err := s.throws.List(ctx, mapID)
		if err != nil {
			return nil, fmt.Errorf("list throws: %w", err)
		}
		return throws, nil
	})
}

func (s *CatalogService) GetThrow(ctx context.Context, id string) (*models.GrenadeThrow, error) {
	t, err := s.throws.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get throw %s: %w", id, err)
	}
	return t, nil
}

func (s *CatalogService) ListUserThrows(ctx context.Context, userID string) ([]models.GrenadeThrow, error) {
	if userID == "" {
		return nil, ports.ErrUnauthorized
	}
	return cached(s, KeyGrenadeThrows+":user:"+userID, func() ([]models.GrenadeThrow, error) {
		throws, err := s.throws.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list user throws: %w", err)
		}
		return throws, nil
	})
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID string) ([]models.UserFavorite, error) {
	if userID == "" {
		return nil, ports.ErrUnauthorized
	}
	return cached(s, KeyUserFavorites+":"+userID, func() ([]models.UserFavorite, error) {
		favs, err := s.favorites.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list favorites: %w", err)
		}
		return favs, nil
	})
}

func (s *CatalogService) CreateThrow(ctx context.Context, userID string, t *models.GrenadeThrow) (*models.GrenadeThrow, error) {
	if userID == "" {
		return nil, ports.ErrUnauthorized
	}
	t.UserID = &userID

	created, err := s.throws.Insert(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create throw: %w", err)
	}

	s.invalidate(KeyMaps, KeyMap, KeyGrenadeThrows)
	s.publish(MapRoom(created.MapID), KeyMaps, KeyGrenadeThrows)
	s.publish(RoomMaps, KeyMaps)
	s.metrics.ThrowCreated(string(created.GrenadeType))

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "throw created",
		Fields: map[string]any{
			"throwID": created.ID,
			"mapID":   created.MapID,
			"userID":  userID,
		},
	})
	return created, nil
}

func (s *CatalogService) DeleteThrow(ctx context.Context, userID, throwID string) error {
	if userID == "" {
		return ports.ErrUnauthorized
	}

	t, err := s.throws.GetByID(ctx, throwID)
	if err != nil {
		return fmt.Errorf("delete throw %s: %w", throwID, err)
	}
	if !t.OwnedBy(userID) {
		return fmt.Errorf("delete throw %s: %w", throwID, ports.ErrForbidden)
	}

	if err := s.throws.Delete(ctx, throwID); err != nil {
		return fmt.Errorf("delete throw %s: %w", throwID, err)
	}

	s.invalidate(KeyMaps, KeyMap, KeyGrenadeThrows, KeyUserFavorites)
	s.publish(MapRoom(t.MapID), KeyMaps, KeyGrenadeThrows, KeyUserFavorites)
	s.publish(RoomMaps, KeyMaps)
	s.metrics.ThrowDeleted()
	return nil
}

// ToggleFavorite flips the favorite state of throwID for userID and returns the new state.
func (s *CatalogService) ToggleFavorite(ctx context.Context, userID, throwID string) (bool, error) {
	if userID == "" {
		return false, ports.ErrUnauthorized
	}

	t, err := s.throws.GetByID(ctx, throwID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite %s: %w", throwID, err)
	}

	exists, err := s.favorites.Exists(ctx, userID, throwID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite %s: %w", throwID, err)
	}

	if exists {
		err = s.favorites.Delete(ctx, userID, throwID)
	} else {
		err = s.favorites.Insert(ctx, userID, throwID)
	}
	if err != nil {
		return false, fmt.Errorf("toggle favorite %s: %w", throwID, err)
	}

	s.invalidate(KeyUserFavorites + ":" + userID)
	s.publish(MapRoom(t.MapID), KeyUserFavorites)
	s.metrics.FavoriteToggled(!exists)
	return !exists, nil
}

// UploadMedia stores body under <user>/<namespace>/<uuid><ext>.
func (s *CatalogService) UploadMedia(
	ctx context.Context,
	userID, namespace, filename, contentType string,
	body io.Reader,
) (ports.StoredMedia, error) {
	if userID == "" {
		return ports.StoredMedia{}, ports.ErrUnauthorized
	}
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return ports.StoredMedia{}, Invalid("file", "unsupported content type "+contentType)
	}

	// rooting before Clean keeps ".." from escaping the user's prefix
	ns := strings.TrimPrefix(path.Clean("/"+namespace), "/")

	ext := strings.ToLower(path.Ext(filename))
	objectPath := path.Join(userID, ns, uuid.NewString()+ext)

	url, err := s.storage.Upload(ctx, objectPath, contentType, body)
	if err != nil {
		return ports.StoredMedia{}, fmt.Errorf("upload media: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media uploaded",
		Fields:  map[string]any{"path": objectPath, "contentType": contentType},
	})
	return ports.StoredMedia{Path: objectPath, URL: url}, nil
}

func (s *CatalogService) RemoveMedia(ctx context.Context, userID, objectPath string) error {
	if userID == "" {
		return ports.ErrUnauthorized
	}
	if !strings.HasPrefix(path.Clean(objectPath), userID+"/") {
		return fmt.Errorf("remove media %s: %w", objectPath, ports.ErrForbidden)
	}

	if err := s.storage.Remove(ctx, objectPath); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "media remove failed",
			Fields:  map[string]any{"path": objectPath},
			Error:   err,
		})
		return fmt.Errorf("remove media %s: %w", objectPath, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media removed",
		Fields:  map[string]any{"path": objectPath},
	})
	return nil
}
