package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
	"github.com/route-freshness/internal/grid"
)

// AggregateSnapshot - неизменяемый снимок агрегата пользователя.
// Index после публикации только читается.
type AggregateSnapshot struct {
	UserID     string
	Index      *grid.Index
	Version    uint64
	BuiltAt    time.Time
	RouteCount int
	Excluded   int
}

// AggregateSource отдаёт агрегат активности пользователя
type AggregateSource interface {
	Get(ctx context.Context, userID string) (*AggregateSnapshot, error)
	Refresh(ctx context.Context, userID string) (*AggregateSnapshot, error)
	Invalidate(ctx context.Context, userID string) error
}

// AggregateCacheOptions - параметры кеша агрегатов
type AggregateCacheOptions struct {
	Grid    grid.Config
	Window  time.Duration // окно "недавней" активности
	TTL     time.Duration
	Workers int
}

// AggregateCache хранит по одному снимку агрегата на пользователя.
//
// Порядок поиска: память процесса, затем Redis, затем сборка из активностей.
// Снимок подменяется целиком через atomic.Pointer, читатели никогда не видят
// частично собранный индекс. Одновременные промахи по одному пользователю
// схлопываются через singleflight.
//
// У записи пользователя есть поколение. Refresh, Forget и Invalidate его
// увеличивают, и сборка, начатая в старом поколении, снимок уже не публикует.
type AggregateCache struct {
	activityRepo repository.ActivityRepository
	cacheRepo    repository.CacheRepository
	opts         AggregateCacheOptions
	logger       *zap.Logger

	mu      sync.Mutex
	entries map[string]*aggregateEntry
	gens    atomic.Uint64 // общий счётчик поколений, значения не повторяются
	group   singleflight.Group

	now func() time.Time
}

type aggregateEntry struct {
	snap atomic.Pointer[AggregateSnapshot]

	mu  sync.Mutex // сериализует публикацию и смену поколения
	gen uint64
}

func (e *aggregateEntry) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// advance переводит запись в поколение gen, drop заодно сбрасывает снимок
func (e *aggregateEntry) advance(gen uint64, drop bool) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen = gen
	if drop {
		e.snap.Store(nil)
	}
	return gen
}

// NewAggregateCache создает новый экземпляр AggregateCache
func NewAggregateCache(
	activityRepo repository.ActivityRepository,
	cacheRepo repository.CacheRepository,
	opts AggregateCacheOptions,
	logger *zap.Logger,
) (*AggregateCache, error) {
	if !opts.Grid.Valid() {
		return nil, fmt.Errorf("aggregate cache: %w", grid.ErrInvalidConfig)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &AggregateCache{
		activityRepo: activityRepo,
		cacheRepo:    cacheRepo,
		opts:         opts,
		logger:       logger,
		entries:      make(map[string]*aggregateEntry),
		now:          time.Now,
	}, nil
}

// Grid возвращает сетку, на которой строятся агрегаты
func (c *AggregateCache) Grid() grid.Config {
	return c.opts.Grid
}

// Get возвращает актуальный снимок, при необходимости собирая его
func (c *AggregateCache) Get(ctx context.Context, userID string) (*AggregateSnapshot, error) {
	e := c.entry(userID)
	if snap := e.snap.Load(); c.fresh(snap) {
		return snap, nil
	}

	gen := e.generation()
	key := fmt.Sprintf("get:%s:%d", userID, gen)
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if snap := e.snap.Load(); c.fresh(snap) {
			return snap, nil
		}

		// 1. Общий кеш
		if snap := c.loadShared(ctx, userID); snap != nil {
			published, _ := c.publish(e, gen, snap)
			return published, nil
		}

		// 2. Сборка из активностей
		return c.build(ctx, e, gen, userID, 0)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debug("Aggregate load shared between callers", zap.String("user_id", userID))
	}
	return v.(*AggregateSnapshot), nil
}

// Refresh пересобирает агрегат из активностей, прочитанных после вызова.
// К уже идущей сборке не присоединяется: она могла прочитать старый набор.
// Без снимка в памяти версия продолжает версию из общего кеша.
func (c *AggregateCache) Refresh(ctx context.Context, userID string) (*AggregateSnapshot, error) {
	e := c.entry(userID)
	gen := e.advance(c.gens.Add(1), false)

	var base uint64
	if e.snap.Load() == nil {
		base = c.sharedVersion(ctx, userID)
	}
	return c.build(ctx, e, gen, userID, base)
}

// Invalidate сбрасывает снимок в памяти и в общем кеше
func (c *AggregateCache) Invalidate(ctx context.Context, userID string) error {
	c.Forget(userID)

	if err := c.cacheRepo.DeleteAggregate(ctx, c.key(userID)); err != nil {
		return fmt.Errorf("invalidate aggregate: %w", err)
	}
	return nil
}

// Forget сбрасывает только снимок в памяти процесса. Следующий Get
// прочитает общий кеш, куда воркер уже положил пересобранный агрегат.
func (c *AggregateCache) Forget(userID string) {
	c.mu.Lock()
	e, ok := c.entries[userID]
	delete(c.entries, userID)
	c.mu.Unlock()

	if ok {
		e.advance(c.gens.Add(1), true)
	}
}

func (c *AggregateCache) entry(userID string) *aggregateEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		e = &aggregateEntry{gen: c.gens.Add(1)}
		c.entries[userID] = e
	}
	return e
}

func (c *AggregateCache) fresh(snap *AggregateSnapshot) bool {
	if snap == nil {
		return false
	}
	return c.opts.TTL <= 0 || c.now().Sub(snap.BuiltAt) < c.opts.TTL
}

// key включает параметры сетки: снимок другой сетки не может быть прочитан
func (c *AggregateCache) key(userID string) string {
	g := c.opts.Grid
	return fmt.Sprintf("aggregate:%s:%g:%g:%g", userID, g.CellSizeKm, g.Reference.Lat, g.Reference.Lon)
}

// build собирает снимок; версия будет не меньше base+1
func (c *AggregateCache) build(ctx context.Context, e *aggregateEntry, gen uint64, userID string, base uint64) (*AggregateSnapshot, error) {
	start := c.now()
	since := start.Add(-c.opts.Window)

	loaded, err := c.activityRepo.ListRecent(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}

	routes, excluded := domain.Partition(loaded)
	for _, ex := range excluded {
		c.logger.Warn("Activity excluded from aggregate",
			zap.String("user_id", userID),
			zap.String("activity_id", ex.ID.String()),
			zap.String("reason", ex.Reason))
	}

	idx, err := grid.BuildAggregateParallel(ctx, c.opts.Grid, routes, c.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("build aggregate: %w", err)
	}

	snap, published := c.publish(e, gen, &AggregateSnapshot{
		UserID:     userID,
		Index:      idx,
		Version:    nextVersion(base),
		BuiltAt:    start,
		RouteCount: len(routes),
		Excluded:   len(excluded),
	})

	c.logger.Info("Aggregate built",
		zap.String("user_id", userID),
		zap.Uint64("version", snap.Version),
		zap.Bool("published", published),
		zap.Int("routes", snap.RouteCount),
		zap.Int("excluded", snap.Excluded),
		zap.Int("cells", idx.GetCellCount()),
		zap.Duration("took", c.now().Sub(start)))

	if published {
		c.storeShared(ctx, snap)
	}
	return snap, nil
}

// publish подменяет снимок, назначая следующую версию, и сообщает,
// стал ли snap текущим. Сборка устаревшего поколения не публикуется,
// как и снимок старше уже опубликованного: тогда возвращается текущий.
func (c *AggregateCache) publish(e *aggregateEntry, gen uint64, snap *AggregateSnapshot) (*AggregateSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.snap.Load()
	if e.gen != gen {
		if old != nil && !old.BuiltAt.Before(snap.BuiltAt) {
			return old, false
		}
		return snap, false
	}
	if old != nil && old.BuiltAt.After(snap.BuiltAt) {
		return old, false
	}

	next := *snap
	if old != nil && old.Version >= next.Version {
		next.Version = old.Version + 1
	} else if next.Version == 0 {
		next.Version = 1
	}

	e.snap.Store(&next)
	return &next, true
}

func nextVersion(base uint64) uint64 {
	if base == 0 {
		return 0
	}
	return base + 1
}

// sharedVersion - версия снимка в общем кеше, 0 если его нет
func (c *AggregateCache) sharedVersion(ctx context.Context, userID string) uint64 {
	cached, err := c.cacheRepo.GetAggregate(ctx, c.key(userID))
	if err != nil || cached == nil {
		return 0
	}
	return cached.Version
}

func (c *AggregateCache) loadShared(ctx context.Context, userID string) *AggregateSnapshot {
	cached, err := c.cacheRepo.GetAggregate(ctx, c.key(userID))
	if err != nil {
		c.logger.Warn("Failed to get aggregate from cache", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if cached == nil {
		return nil
	}

	snap, err := fromCached(c.opts.Grid, cached)
	if err != nil {
		c.logger.Warn("Cached aggregate rejected", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if !c.fresh(snap) {
		return nil
	}
	snap.UserID = userID

	c.logger.Debug("Aggregate fetched from cache",
		zap.String("user_id", userID),
		zap.Uint64("version", snap.Version))
	return snap
}

func (c *AggregateCache) storeShared(ctx context.Context, snap *AggregateSnapshot) {
	ttl := c.opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	if err := c.cacheRepo.SetAggregate(ctx, c.key(snap.UserID), toCached(snap), ttl); err != nil {
		// Не возвращаем ошибку, т.к. агрегат уже собран
		c.logger.Warn("Failed to cache aggregate", zap.String("user_id", snap.UserID), zap.Error(err))
	}
}

func toCached(snap *AggregateSnapshot) *domain.AggregateSnapshot {
	cfg := snap.Index.Config()
	cells := snap.Index.GetAllCells()

	out := &domain.AggregateSnapshot{
		UserID:     snap.UserID,
		Version:    snap.Version,
		CellSizeKm: cfg.CellSizeKm,
		RefLat:     cfg.Reference.Lat,
		RefLon:     cfg.Reference.Lon,
		RouteCount: snap.RouteCount,
		BuiltAt:    snap.BuiltAt,
		Cells:      make([]domain.CellMeters, len(cells)),
	}
	for i, c := range cells {
		out.Cells[i] = domain.CellMeters{X: c.Cell.X, Y: c.Cell.Y, Meters: c.DistanceMeters}
	}
	return out
}

func fromCached(cfg grid.Config, cached *domain.AggregateSnapshot) (*AggregateSnapshot, error) {
	stored, err := grid.NewConfig(cached.CellSizeKm, cached.RefLat, cached.RefLon)
	if err != nil {
		return nil, err
	}
	if !stored.Equal(cfg) {
		return nil, grid.ErrIncompatibleGrids
	}

	cells := make([]grid.CellDistance, len(cached.Cells))
	for i, c := range cached.Cells {
		cells[i] = grid.CellDistance{Cell: grid.Cell{X: c.X, Y: c.Y}, DistanceMeters: c.Meters}
	}

	idx, err := grid.Restore(cfg, cells)
	if err != nil {
		return nil, err
	}

	return &AggregateSnapshot{
		UserID:     cached.UserID,
		Index:      idx,
		Version:    cached.Version,
		BuiltAt:    cached.BuiltAt,
		RouteCount: cached.RouteCount,
	}, nil
}
