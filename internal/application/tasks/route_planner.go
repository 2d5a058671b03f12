package tasks

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// RoutePlannerTask walks a queued route waypoint by waypoint, deriving the
// velocity/heading setpoints NavigationControlTask should chase next.
type RoutePlannerTask struct {
	state          *truck.SharedState
	bus            *truck.EventBus
	routes         *truck.RouteQueue
	planningPeriod time.Duration
	thresholds     *shared.LiveThresholds
	maxVelocity    float64

	route              []truck.Waypoint
	currentWaypointIdx int
}

// NewRoutePlannerTask creates a task advancing through routes on the given period.
func NewRoutePlannerTask(state *truck.SharedState, bus *truck.EventBus, routes *truck.RouteQueue, planningPeriod time.Duration, thresholds *shared.LiveThresholds, maxVelocity float64) *RoutePlannerTask {
	if thresholds == nil {
		thresholds = shared.NewLiveThresholds(100.0, 1.0)
	}
	return &RoutePlannerTask{
		state:          state,
		bus:            bus,
		routes:         routes,
		planningPeriod: planningPeriod,
		thresholds:     thresholds,
		maxVelocity:    maxVelocity,
	}
}

// Run executes the route-following loop until ctx is cancelled.
func (t *RoutePlannerTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "route planner task started", nil)

	ticker := time.NewTicker(t.planningPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(logger)
		case <-ctx.Done():
			logger.Log("INFO", "route planner task stopped", nil)
			return
		}
	}
}

func (t *RoutePlannerTask) tick(logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("route planner panic: %v", r), nil)
		}
	}()

	t.checkNewRoute(logger)
	t.updateSetpoints(logger)
}

func (t *RoutePlannerTask) checkNewRoute(logger common.ContainerLogger) {
	newRoute, ok := t.routes.TryGet()
	if !ok {
		return
	}
	t.route = newRoute
	t.currentWaypointIdx = 0
	logger.Log("INFO", fmt.Sprintf("new route received with %d waypoints", len(t.route)), nil)
	t.bus.Emit(truck.EventNewRoute, map[string]interface{}{"waypoints": len(t.route)}, time.Now())
}

func (t *RoutePlannerTask) updateSetpoints(logger common.ContainerLogger) {
	if len(t.route) == 0 || t.currentWaypointIdx >= len(t.route) || !t.state.IsAutomatic() {
		return
	}

	x, y, _, _ := t.state.Position()
	target := t.route[t.currentWaypointIdx]
	distance := math.Hypot(target.X-x, target.Y-y)

	if distance < t.thresholds.WaypointThreshold() {
		logger.Log("INFO", fmt.Sprintf("waypoint %d/%d reached", t.currentWaypointIdx+1, len(t.route)), nil)
		t.currentWaypointIdx++
		if t.currentWaypointIdx >= len(t.route) {
			logger.Log("INFO", "route complete", nil)
			zero := 0.0
			t.state.SetSetpoints(&zero, nil)
			t.bus.Emit(truck.EventTargetReached, nil, time.Now())
			t.route = nil
			return
		}
		target = t.route[t.currentWaypointIdx]
		distance = math.Hypot(target.X-x, target.Y-y)
	}

	desiredTheta := math.Atan2(target.Y-y, target.X-x)
	desiredVelocity := math.Min(t.maxVelocity, distance*0.5)
	desiredVelocity = math.Max(0.5, desiredVelocity)

	t.state.SetSetpoints(&desiredVelocity, &desiredTheta)
	t.state.SetTarget(&target.X, &target.Y)
}
