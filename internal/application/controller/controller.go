package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/application/tasks"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/control"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// Timings holds the period each periodic task runs at.
type Timings struct {
	SensorProcessing time.Duration
	FaultMonitoring  time.Duration
	CommandLogic     time.Duration
	Control          time.Duration
	RoutePlanning    time.Duration
	DataCollection   time.Duration
	TaskStagger      time.Duration
}

// DefaultTimings returns the periods used across the fleet absent
// operator-supplied configuration.
func DefaultTimings() Timings {
	return Timings{
		SensorProcessing: 100 * time.Millisecond,
		FaultMonitoring:  500 * time.Millisecond,
		CommandLogic:     100 * time.Millisecond,
		Control:          50 * time.Millisecond,
		RoutePlanning:    200 * time.Millisecond,
		DataCollection:   time.Second,
		TaskStagger:      100 * time.Millisecond,
	}
}

// Thresholds holds the tunable limits that shape filtering, fault detection
// and route following.
type Thresholds struct {
	FilterOrder          int
	TempThreshold        float64
	WaypointThreshold    float64
	MaxVelocity          float64
	CommandQueueCapacity int
	RouteQueueCapacity   int
	BufferSize           int
	RecentLogCount       int
}

// DefaultThresholds returns the thresholds used across the fleet absent
// operator-supplied configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FilterOrder:          5,
		TempThreshold:        100.0,
		WaypointThreshold:    1.0,
		MaxVelocity:          5.0,
		CommandQueueCapacity: 50,
		RouteQueueCapacity:   10,
		BufferSize:           100,
		RecentLogCount:       10,
	}
}

// Gains holds the PID gains for the velocity and angular controllers.
type Gains struct {
	VelocityKp, VelocityKi, VelocityKd float64
	AngularKp, AngularKi, AngularKd    float64
	MaxAccel, MaxSteering              float64
}

// DefaultGains returns the gains used across the fleet absent
// operator-supplied configuration.
func DefaultGains() Gains {
	return Gains{
		VelocityKp: 0.5, VelocityKi: 0.1, VelocityKd: 0.05,
		AngularKp: 1.0, AngularKi: 0.05, AngularKd: 0.2,
		MaxAccel: 1.0, MaxSteering: 1.0,
	}
}

// driverTask is the optional interface a sensor source can implement when it
// needs its own background loop to stay fed (e.g. a simulated vehicle
// integrating its own dynamics), as opposed to a passive field-bus adapter
// that only answers Read on demand.
type driverTask interface {
	Run(ctx context.Context)
}

// Controller wires together the six periodic tasks of a single truck's
// control plane, mirroring the start/stop choreography of an embedded
// system: a strict startup order, a small settling stagger between task
// launches, and a bounded-timeout shutdown. Shutdown cancels one context
// shared by every task, so all tasks are told to stop at the same moment;
// they are not stopped one by one in reverse start order.
type Controller struct {
	truckID int

	sensorSource tasks.SensorSource

	state      *truck.SharedState
	bus        *truck.EventBus
	buffer     *truck.CircularBuffer
	commands   *truck.CommandQueue
	routes     *truck.RouteQueue
	thresholds *shared.LiveThresholds

	sensorTask  *tasks.SensorProcessingTask
	faultTask   *tasks.FaultMonitoringTask
	commandTask *tasks.CommandLogicTask
	navTask     *tasks.NavigationControlTask
	routeTask   *tasks.RoutePlannerTask
	dataTask    *tasks.DataCollectorTask

	timings Timings
	clock   shared.Clock
	logger  common.ContainerLogger

	lifecycle *shared.LifecycleStateMachine

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped chan struct{}
}

// New builds a Controller for the given truck, wiring every task against
// shared in-process infrastructure (SharedState, EventBus, CircularBuffer,
// command/route queues).
func New(
	truckID int,
	sensorSource tasks.SensorSource,
	faultClearer tasks.FaultClearer,
	logSink tasks.LogSink,
	timings Timings,
	thresholds Thresholds,
	gains Gains,
	clock shared.Clock,
	logger common.ContainerLogger,
) *Controller {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}

	state := truck.NewSharedState(truckID)
	bus := truck.NewEventBus()
	buffer := truck.NewCircularBuffer(thresholds.BufferSize)
	commands := truck.NewCommandQueue(thresholds.CommandQueueCapacity)
	routes := truck.NewRouteQueue(thresholds.RouteQueueCapacity)
	liveThresholds := shared.NewLiveThresholds(thresholds.TempThreshold, thresholds.WaypointThreshold)

	velocityCtrl := control.NewVelocityController(gains.VelocityKp, gains.VelocityKi, gains.VelocityKd, gains.MaxAccel, clock)
	angularCtrl := control.NewAngularController(gains.AngularKp, gains.AngularKi, gains.AngularKd, gains.MaxSteering, clock)

	return &Controller{
		truckID:      truckID,
		sensorSource: sensorSource,
		state:        state,
		bus:          bus,
		buffer:       buffer,
		commands:     commands,
		routes:       routes,
		thresholds:   liveThresholds,

		sensorTask:  tasks.NewSensorProcessingTask(sensorSource, buffer, thresholds.FilterOrder, timings.SensorProcessing),
		faultTask:   tasks.NewFaultMonitoringTask(sensorSource, bus, timings.FaultMonitoring, liveThresholds),
		commandTask: tasks.NewCommandLogicTask(buffer, state, bus, commands, timings.CommandLogic, clock, faultClearer, liveThresholds),
		navTask:     tasks.NewNavigationControlTask(state, bus, timings.Control, velocityCtrl, angularCtrl),
		routeTask:   tasks.NewRoutePlannerTask(state, bus, routes, timings.RoutePlanning, liveThresholds, thresholds.MaxVelocity),
		dataTask:    tasks.NewDataCollectorTask(state, bus, logSink, timings.DataCollection, thresholds.RecentLogCount),

		timings:   timings,
		clock:     clock,
		logger:    logger,
		lifecycle: shared.NewLifecycleStateMachine(clock),
	}
}

// Start launches every task in its fixed dependency order (sensors feed the
// buffer everything else reads from), pausing briefly between launches to
// let each task settle, matching the embedded system's staggered startup.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.lifecycle.Start(); err != nil {
		return shared.NewInvalidTransitionError(fmt.Sprintf("controller %d: %v", c.truckID, err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.stopped = make(chan struct{})

	taskCtx := common.WithLogger(runCtx, c.logger)

	runners := []func(context.Context){}
	if driven, ok := c.sensorSource.(driverTask); ok {
		runners = append(runners, driven.Run)
	}
	runners = append(runners,
		c.sensorTask.Run,
		c.faultTask.Run,
		c.commandTask.Run,
		c.navTask.Run,
		c.routeTask.Run,
		c.dataTask.Run,
	)

	for _, run := range runners {
		c.wg.Add(1)
		go func(run func(context.Context)) {
			defer c.wg.Done()
			run(taskCtx)
		}(run)
		c.clock.Sleep(c.timings.TaskStagger)
	}

	shutdownSub := c.bus.Subscribe(truck.EventShutdown)
	go func() {
		defer shutdownSub.Close()
		if _, ok := shutdownSub.Wait(runCtx, 0); ok {
			c.logger.Log("INFO", "shutdown event received, stopping controller", nil)
			_ = c.Stop()
		}
	}()

	c.logger.Log("INFO", "controller started", map[string]interface{}{"truck_id": c.truckID})
	return nil
}

// Stop cancels every task's context and waits up to two seconds for them to
// exit before giving up, preventing a wedged task from hanging shutdown
// forever.
func (c *Controller) Stop() error {
	if err := c.lifecycle.Stop(); err != nil {
		return nil // already stopped/stopping; idempotent
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.logger.Log("WARN", "controller stop timed out waiting for tasks", nil)
	}

	c.bus.Shutdown()
	if c.stopped != nil {
		close(c.stopped)
	}
	c.logger.Log("INFO", "controller stopped", nil)
	return nil
}

// EnqueueCommand submits an operator/remote command, returning false if the
// command queue is full.
func (c *Controller) EnqueueCommand(cmd truck.Command) bool {
	return c.commands.TryPut(cmd)
}

// EnqueueRoute submits a new route, returning false if the route queue is full.
func (c *Controller) EnqueueRoute(route []truck.Waypoint) bool {
	return c.routes.TryPut(route)
}

// ApplyRemoteSetpoint overrides the velocity/angular setpoints directly,
// for a remote operator driving the truck outside of route following. A
// route submitted afterwards still takes precedence once RoutePlanner's
// next tick recomputes setpoints from the current waypoint.
func (c *Controller) ApplyRemoteSetpoint(velocity, angular float64) {
	c.state.SetSetpoints(&velocity, &angular)
}

// UpdateThresholds replaces the live fault-temperature and waypoint-arrival
// thresholds every task re-reads each tick, for wiring to a config reload
// callback (config.Config.WatchReload) without restarting the controller.
func (c *Controller) UpdateThresholds(tempThreshold, waypointThreshold float64) {
	c.thresholds.Update(tempThreshold, waypointThreshold)
}

// Snapshot returns the current vehicle state.
func (c *Controller) Snapshot() truck.VehicleState {
	return c.state.Snapshot()
}

// RecentLogs returns up to n of the most recently collected telemetry rows.
func (c *Controller) RecentLogs(n int) []truck.LogEntry {
	return c.dataTask.RecentLogs(n)
}

// EventBus exposes the controller's event bus for transport adapters that
// need to mirror domain events outward.
func (c *Controller) EventBus() *truck.EventBus {
	return c.bus
}

// IsRunning reports whether the controller's tasks are currently active.
func (c *Controller) IsRunning() bool {
	return c.lifecycle.IsRunning()
}
