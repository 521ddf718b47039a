package usecase

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
	"github.com/route-freshness/internal/grid"
	"github.com/route-freshness/internal/infrastructure/gpx"
	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/usecase/dto"
)

// FreshnessUseCase ранжирует маршруты по тому, насколько они пересекаются
// с недавней активностью пользователя. Меньшая оценка - более "свежий" маршрут.
type FreshnessUseCase struct {
	routeRepo  repository.RouteRepository
	aggregates AggregateSource
	grid       grid.Config
	scorer     *grid.Scorer
	workers    int
	logger     *zap.Logger
}

// NewFreshnessUseCase создает новый экземпляр FreshnessUseCase
func NewFreshnessUseCase(
	routeRepo repository.RouteRepository,
	aggregates AggregateSource,
	gridCfg grid.Config,
	scorer *grid.Scorer,
	workers int,
	logger *zap.Logger,
) *FreshnessUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &FreshnessUseCase{
		routeRepo:  routeRepo,
		aggregates: aggregates,
		grid:       gridCfg,
		scorer:     scorer,
		workers:    workers,
		logger:     logger,
	}
}

// ScoreRoutes оценивает маршруты запроса относительно активностей из того же запроса
func (uc *FreshnessUseCase) ScoreRoutes(ctx context.Context, req dto.ScoreRoutesRequest) (*dto.FreshnessResponse, error) {
	cfg, err := uc.gridFor(req.Grid)
	if err != nil {
		return nil, errors.ErrInvalidGridConfig.WithDetails(map[string]interface{}{"error": err.Error()})
	}

	activities, err := toLoadedRoutes(req.Activities, domain.RouteSourceActivity)
	if err != nil {
		return nil, err
	}
	candidates, err := toLoadedRoutes(req.Routes, domain.RouteSourceRequest)
	if err != nil {
		return nil, err
	}

	recent, excludedActivities := domain.Partition(activities)
	routes, excluded := domain.Partition(candidates)

	aggregate, err := grid.BuildAggregateParallel(ctx, cfg, recent, uc.workers)
	if err != nil {
		return nil, fmt.Errorf("build aggregate: %w", err)
	}

	scores, err := uc.scoreAll(ctx, routes, aggregate)
	if err != nil {
		return nil, err
	}

	// id маршрутов запроса - произвольные строки клиента
	clientIDs := make(map[string]string, len(req.Routes))
	for i, in := range req.Routes {
		clientIDs[requestRouteID(i).String()] = clientRouteID(in, i)
	}
	for i := range scores {
		scores[i].ID = clientIDs[scores[i].ID]
	}
	excludedOut := toExcluded(excluded)
	for i := range excludedOut {
		excludedOut[i].ID = clientIDs[excludedOut[i].ID]
	}

	return &dto.FreshnessResponse{
		Routes:   scores,
		Excluded: excludedOut,
		Aggregate: dto.AggregateInfo{
			RouteCount: len(recent),
			Excluded:   len(excludedActivities),
			Stats:      aggregate.Stats(),
		},
		Policy: uc.scorer.Policy().String(),
	}, nil
}

// ScoreSavedRoutes ранжирует сохранённые маршруты пользователя по его недавней активности
func (uc *FreshnessUseCase) ScoreSavedRoutes(ctx context.Context, userID string) (*dto.FreshnessResponse, error) {
	loaded, err := uc.routeRepo.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to list saved routes", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	routes, excluded := domain.Partition(loaded)
	for _, ex := range excluded {
		uc.logger.Warn("Route excluded from scoring",
			zap.String("user_id", userID),
			zap.String("route_id", ex.ID.String()),
			zap.String("reason", ex.Reason))
	}

	snap, err := uc.aggregates.Get(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to get aggregate", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	scores, err := uc.scoreAll(ctx, routes, snap.Index)
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("Saved routes scored",
		zap.String("user_id", userID),
		zap.Int("routes", len(scores)),
		zap.Int("excluded", len(excluded)),
		zap.Uint64("aggregate_version", snap.Version))

	return &dto.FreshnessResponse{
		Routes:    scores,
		Excluded:  toExcluded(excluded),
		Aggregate: aggregateInfo(snap),
		Policy:    uc.scorer.Policy().String(),
	}, nil
}

// scoreAll оценивает маршруты параллельно, затем нормализует и ранжирует.
// Неоценённые маршруты идут в конце без ранга.
func (uc *FreshnessUseCase) scoreAll(ctx context.Context, routes []*domain.Route, aggregate *grid.Index) ([]dto.RouteScore, error) {
	results := make([]dto.RouteScore, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	for i, route := range routes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			idx, err := grid.BuildRouteIndex(aggregate.Config(), route)
			if err != nil {
				return err
			}
			res, err := uc.scorer.Evaluate(idx, aggregate)
			if err != nil {
				return err
			}

			results[i] = toRouteScore(route, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score routes: %w", err)
	}

	rank(results)
	return results, nil
}

// GetAggregateHeatmap возвращает ячейки агрегата пользователя
func (uc *FreshnessUseCase) GetAggregateHeatmap(ctx context.Context, userID string) (*dto.HeatmapResponse, error) {
	snap, err := uc.aggregates.Get(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to get aggregate", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	cfg := snap.Index.Config()
	return &dto.HeatmapResponse{
		CellSizeKm: cfg.CellSizeKm,
		Cells:      heatCells(cfg, snap.Index.GetAllCells()),
		Aggregate:  aggregateInfo(snap),
	}, nil
}

// GetRouteHeatmap возвращает ячейки сохранённого маршрута и их вклад в оценку
func (uc *FreshnessUseCase) GetRouteHeatmap(ctx context.Context, userID string, routeID uuid.UUID) (*dto.RouteHeatmapResponse, error) {
	route, err := uc.loadRoute(ctx, userID, routeID)
	if err != nil {
		return nil, err
	}

	snap, err := uc.aggregates.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	idx, err := grid.BuildRouteIndex(snap.Index.Config(), route)
	if err != nil {
		return nil, err
	}
	res, err := uc.scorer.Evaluate(idx, snap.Index)
	if err != nil {
		return nil, err
	}

	return &dto.RouteHeatmapResponse{
		Route:     toRouteScore(route, res),
		Cells:     heatCells(idx.Config(), idx.GetAllCells()),
		Breakdown: grid.Breakdown(idx, snap.Index),
		Aggregate: aggregateInfo(snap),
	}, nil
}

// ImportGPX разбирает GPX и сохраняет маршрут пользователя
func (uc *FreshnessUseCase) ImportGPX(ctx context.Context, userID, name string, r io.Reader) (*dto.RouteSummary, error) {
	route, err := gpx.Parse(r, name)
	if err != nil {
		uc.logger.Warn("GPX rejected", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.ErrInvalidGPX.WithDetails(map[string]interface{}{"error": err.Error()})
	}

	route.ID = uuid.New()
	route.UserID = userID
	route.Source = domain.RouteSourceGPX
	route.CreatedAt = time.Now().UTC()

	if err := uc.routeRepo.Create(ctx, route); err != nil {
		uc.logger.Error("Failed to save route", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	uc.logger.Info("Route imported",
		zap.String("user_id", userID),
		zap.String("route_id", route.ID.String()),
		zap.Int("points", len(route.Points)),
		zap.Float64("distance_m", route.TotalDistance))

	return toRouteSummary(route), nil
}

// ExportGPX отдаёт сохранённый маршрут в формате GPX 1.1
func (uc *FreshnessUseCase) ExportGPX(ctx context.Context, userID string, routeID uuid.UUID) ([]byte, *domain.Route, error) {
	route, err := uc.loadRoute(ctx, userID, routeID)
	if err != nil {
		return nil, nil, err
	}

	data, err := gpx.Encode(route)
	if err != nil {
		return nil, nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, route, nil
}

// RefreshAggregate пересобирает агрегат пользователя после синхронизации активностей
func (uc *FreshnessUseCase) RefreshAggregate(ctx context.Context, userID string) (*dto.RefreshResponse, error) {
	snap, err := uc.aggregates.Refresh(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to refresh aggregate", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("refresh aggregate: %w", err)
	}

	return &dto.RefreshResponse{
		Version:       snap.Version,
		RouteCount:    snap.RouteCount,
		CellCount:     snap.Index.GetCellCount(),
		TotalDistance: snap.Index.GetTotalDistance(),
		BuiltAt:       snap.BuiltAt,
	}, nil
}

func (uc *FreshnessUseCase) loadRoute(ctx context.Context, userID string, routeID uuid.UUID) (*domain.Route, error) {
	route, err := uc.routeRepo.GetByID(ctx, userID, routeID)
	if err != nil {
		if stderrors.Is(err, domain.ErrRouteNotFound) {
			return nil, errors.ErrRouteNotFound
		}
		uc.logger.Error("Failed to get route", zap.String("route_id", routeID.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	if err := route.Validate(); err != nil {
		return nil, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{"error": err.Error()})
	}
	route.ComputeDerived()
	return route, nil
}

// gridFor собирает сетку запроса поверх сетки сервиса
func (uc *FreshnessUseCase) gridFor(params *dto.GridParams) (grid.Config, error) {
	if params == nil {
		return uc.grid, nil
	}

	cellSize, lat, lon := uc.grid.CellSizeKm, uc.grid.Reference.Lat, uc.grid.Reference.Lon
	if params.CellSizeKm > 0 {
		cellSize = params.CellSizeKm
	}
	if params.ReferenceLat != nil {
		lat = *params.ReferenceLat
	}
	if params.ReferenceLon != nil {
		lon = *params.ReferenceLon
	}
	return grid.NewConfig(cellSize, lat, lon)
}

// requestRouteID - детерминированный uuid для i-го маршрута запроса
func requestRouteID(i int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("request-route-"+strconv.Itoa(i)))
}

func clientRouteID(in dto.RouteInput, i int) string {
	if in.ID != "" {
		return in.ID
	}
	return strconv.Itoa(i)
}

func toLoadedRoutes(inputs []dto.RouteInput, source domain.RouteSource) ([]domain.LoadedRoute, error) {
	out := make([]domain.LoadedRoute, len(inputs))
	for i, in := range inputs {
		if (len(in.Points) > 0) == (in.Polyline != "") {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
				"index": i,
				"error": "exactly one of points or polyline is required",
			})
		}

		id := requestRouteID(i)
		loaded := domain.LoadedRoute{ID: id, Name: in.Name}

		points := make([]domain.RoutePoint, len(in.Points))
		for j, p := range in.Points {
			points[j] = domain.RoutePoint{Lat: p.Lat, Lon: p.Lon, Elevation: p.Elevation}
		}
		if in.Polyline != "" {
			decoded, err := domain.DecodePolyline(in.Polyline)
			if err != nil {
				loaded.Err = err
				out[i] = loaded
				continue
			}
			points = decoded
		}

		loaded.Route = &domain.Route{ID: id, Name: in.Name, Source: source, Points: points}
		out[i] = loaded
	}
	return out, nil
}

func toExcluded(excluded []domain.ExcludedRoute) []dto.ExcludedRoute {
	if len(excluded) == 0 {
		return nil
	}
	out := make([]dto.ExcludedRoute, len(excluded))
	for i, ex := range excluded {
		out[i] = dto.ExcludedRoute{ID: ex.ID.String(), Name: ex.Name, Reason: ex.Reason}
	}
	return out
}

func toRouteScore(route *domain.Route, res grid.Result) dto.RouteScore {
	return dto.RouteScore{
		ID:            route.ID.String(),
		Name:          route.Name,
		Score:         res.Score,
		Scored:        res.Scored,
		RouteDistance: res.RouteDistance,
		CellCount:     res.CellCount,
	}
}

// rank нормализует оценки и сортирует: оценённые по возрастанию оценки,
// затем неоценённые. Ранг 1 - самый свежий маршрут.
func rank(scores []dto.RouteScore) {
	slices.SortStableFunc(scores, func(a, b dto.RouteScore) int {
		if a.Scored != b.Scored {
			if a.Scored {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	raw := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s.Scored {
			raw = append(raw, s.Score)
		}
	}

	normalized := grid.Normalize(raw)
	for i := range normalized {
		scores[i].Normalized = normalized[i]
		scores[i].Rank = i + 1
	}
}

func heatCells(cfg grid.Config, cells []grid.CellDistance) []dto.HeatCell {
	out := make([]dto.HeatCell, len(cells))
	for i, c := range cells {
		b := cfg.CellBounds(c.Cell)
		out[i] = dto.HeatCell{
			X:      c.Cell.X,
			Y:      c.Cell.Y,
			Meters: c.DistanceMeters,
			Bounds: [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		}
	}
	return out
}

func aggregateInfo(snap *AggregateSnapshot) dto.AggregateInfo {
	builtAt := snap.BuiltAt
	return dto.AggregateInfo{
		Version:    snap.Version,
		BuiltAt:    &builtAt,
		RouteCount: snap.RouteCount,
		Excluded:   snap.Excluded,
		Stats:      snap.Index.Stats(),
	}
}

func toRouteSummary(route *domain.Route) *dto.RouteSummary {
	return &dto.RouteSummary{
		ID:            route.ID.String(),
		Name:          route.Name,
		Source:        route.Source,
		PointCount:    len(route.Points),
		TotalDistance: route.TotalDistance,
		CreatedAt:     route.CreatedAt,
	}
}
