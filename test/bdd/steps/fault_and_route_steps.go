package steps

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/tasks"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/control"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// rawSensorSource hands FaultMonitoringTask a raw, unfiltered sample, the
// same way a simulated or field-bus sensor source would: reads always
// return whatever was last pushed, never something passed through a
// moving-average filter.
type rawSensorSource struct {
	mu     sync.Mutex
	sample truck.SensorSample
}

func (r *rawSensorSource) Read(ctx context.Context) (truck.SensorSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sample, nil
}

func (r *rawSensorSource) push(temp float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sample = truck.SensorSample{Temperature: temp, Timestamp: time.Now()}
}

// faultAndRouteContext drives the real CommandLogicTask/NavigationControlTask/
// RoutePlannerTask/FaultMonitoringTask pairs against shared in-process
// infrastructure, the same way Controller wires them, but at scenario scope
// so each feature exercises exactly the tasks it names.
type faultAndRouteContext struct {
	state     *truck.SharedState
	bus       *truck.EventBus
	buffer    *truck.CircularBuffer
	commands  *truck.CommandQueue
	routes    *truck.RouteQueue
	rawSource *rawSensorSource

	velocityCtrl *control.VelocityController
	angularCtrl  *control.AngularController

	cancels []context.CancelFunc

	targetReached *truck.Subscription
	tempEvents    *truck.Subscription

	tempFaultCount int
	tempClearCount int
}

func (fc *faultAndRouteContext) reset() {
	for _, cancel := range fc.cancels {
		cancel()
	}
	fc.cancels = nil
	fc.state = truck.NewSharedState(1)
	fc.bus = truck.NewEventBus()
	fc.buffer = truck.NewCircularBuffer(20)
	fc.commands = truck.NewCommandQueue(10)
	fc.routes = truck.NewRouteQueue(5)
	fc.rawSource = &rawSensorSource{}
	fc.velocityCtrl = control.NewVelocityController(0.5, 0.1, 0.05, 1.0, shared.NewRealClock())
	fc.angularCtrl = control.NewAngularController(1.0, 0.05, 0.2, 1.0, shared.NewRealClock())
	fc.targetReached = nil
	fc.tempEvents = nil
	fc.tempFaultCount = 0
	fc.tempClearCount = 0
}

func (fc *faultAndRouteContext) spawn(run func(context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	fc.cancels = append(fc.cancels, cancel)
	go run(ctx)
}

// --- Emergency scenarios -----------------------------------------------

func (fc *faultAndRouteContext) aRunningTruckInAutomaticModeWithVelocitySetpoint(setpoint float64) error {
	fc.state.SetMode(truck.ModeAutomaticRemote)
	fc.state.SetPosition(0, 0, 0, setpoint)
	fc.state.SetSetpoints(&setpoint, nil)
	fc.state.SetStatus(truck.StatusRunning)

	commandLogic := tasks.NewCommandLogicTask(fc.buffer, fc.state, fc.bus, fc.commands, 5*time.Millisecond, shared.NewRealClock(), nil, nil)
	navTask := tasks.NewNavigationControlTask(fc.state, fc.bus, 5*time.Millisecond, fc.velocityCtrl, fc.angularCtrl)
	fc.spawn(commandLogic.Run)
	fc.spawn(navTask.Run)
	time.Sleep(10 * time.Millisecond) // let both tasks observe AUTOMATIC and enable bumpless transfer
	return nil
}

func (fc *faultAndRouteContext) theOperatorSendsAnEmergencyStopCommand() error {
	fc.commands.TryPut(truck.Command{Kind: truck.CommandEmergencyStop, TruckID: 1})
	return nil
}

func (fc *faultAndRouteContext) theOperatorHasSentAnEmergencyStopCommand() error {
	return fc.theOperatorSendsAnEmergencyStopCommand()
}

func (fc *faultAndRouteContext) theOperatorSendsAResetEmergencyCommand() error {
	fc.commands.TryPut(truck.Command{Kind: truck.CommandResetEmergency, TruckID: 1})
	return nil
}

func (fc *faultAndRouteContext) withinMsTheStatusShouldBe(budget int, status string) error {
	ok := eventually(time.Duration(budget)*time.Millisecond, func() bool {
		return fc.state.Snapshot().Status.String() == status
	})
	if !ok {
		return fmt.Errorf("status never became %s, last was %s", status, fc.state.Snapshot().Status)
	}
	return nil
}

func (fc *faultAndRouteContext) withinMsTheAccelerationCommandShouldBe(budget int, want float64) error {
	ok := eventually(time.Duration(budget)*time.Millisecond, func() bool {
		accel, _ := fc.state.Actuators()
		return accel == want
	})
	if !ok {
		accel, _ := fc.state.Actuators()
		return fmt.Errorf("acceleration command never reached %v, last was %v", want, accel)
	}
	return nil
}

func (fc *faultAndRouteContext) withinMsTheSteeringCommandShouldBe(budget int, want float64) error {
	ok := eventually(time.Duration(budget)*time.Millisecond, func() bool {
		_, steer := fc.state.Actuators()
		return steer == want
	})
	if !ok {
		_, steer := fc.state.Actuators()
		return fmt.Errorf("steering command never reached %v, last was %v", want, steer)
	}
	return nil
}

func (fc *faultAndRouteContext) withinMsTheEmergencyFlagShouldBe(budget int, want string) error {
	target := want == "true"
	ok := eventually(time.Duration(budget)*time.Millisecond, func() bool {
		return fc.state.Snapshot().EmergencyStop == target
	})
	if !ok {
		return fmt.Errorf("emergency flag never became %v", target)
	}
	return nil
}

func (fc *faultAndRouteContext) theAccelerationCommandShouldStillBe(want float64) error {
	accel, _ := fc.state.Actuators()
	if accel != want {
		return fmt.Errorf("want acceleration %v, got %v", want, accel)
	}
	return nil
}

// --- Route following ------------------------------------------------------

func (fc *faultAndRouteContext) aTruckAtPositionFacingHeading(x, y, heading float64) error {
	fc.state.SetPosition(x, y, heading, 0)
	return nil
}

func (fc *faultAndRouteContext) aRoutePlannerTaskWithWaypointThresholdAndMaxVelocity(threshold, maxVelocity float64) error {
	routeTask := tasks.NewRoutePlannerTask(fc.state, fc.bus, fc.routes, 5*time.Millisecond, shared.NewLiveThresholds(100.0, threshold), maxVelocity)
	fc.targetReached = fc.bus.Subscribe(truck.EventTargetReached)
	fc.spawn(routeTask.Run)
	return nil
}

func (fc *faultAndRouteContext) theRouteIsSubmittedAndTheTruckEntersAutomatic(waypointList string) error {
	waypoints, err := parseWaypoints(waypointList)
	if err != nil {
		return err
	}
	fc.routes.TryPut(waypoints)
	fc.state.SetMode(truck.ModeAutomaticRemote)
	return nil
}

func (fc *faultAndRouteContext) withinOnePlanningTickTheVelocitySetpointShouldBe(want float64) error {
	ok := eventually(100*time.Millisecond, func() bool {
		v, _ := fc.state.Setpoints()
		return math.Abs(v-want) < 1e-6
	})
	if !ok {
		v, _ := fc.state.Setpoints()
		return fmt.Errorf("velocity setpoint never reached %v, last was %v", want, v)
	}
	return nil
}

func (fc *faultAndRouteContext) withinOnePlanningTickTheHeadingSetpointShouldBeApproximately(want float64) error {
	ok := eventually(100*time.Millisecond, func() bool {
		_, a := fc.state.Setpoints()
		return math.Abs(a-want) < 1e-3
	})
	if !ok {
		_, a := fc.state.Setpoints()
		return fmt.Errorf("heading setpoint never reached ~%v, last was %v", want, a)
	}
	return nil
}

func (fc *faultAndRouteContext) theTrucksPositionAdvancesTo(x, y float64) error {
	_, _, theta, velocity := fc.state.Position()
	fc.state.SetPosition(x, y, theta, velocity)
	return nil
}

func (fc *faultAndRouteContext) aTargetReachedEventShouldBeEmitted() error {
	_, ok := fc.targetReached.Wait(context.Background(), 100*time.Millisecond)
	if !ok {
		return fmt.Errorf("TARGET_REACHED was never emitted")
	}
	return nil
}

func (fc *faultAndRouteContext) theVelocitySetpointShouldBe(want float64) error {
	v, _ := fc.state.Setpoints()
	if math.Abs(v-want) > 1e-6 {
		return fmt.Errorf("want velocity setpoint %v, got %v", want, v)
	}
	return nil
}

// --- Temperature edge -------------------------------------------------

func (fc *faultAndRouteContext) aFaultMonitoringTaskWithTemperatureThreshold(threshold float64) error {
	faultTask := tasks.NewFaultMonitoringTask(fc.rawSource, fc.bus, 5*time.Millisecond, shared.NewLiveThresholds(threshold, 1.0))
	fc.tempEvents = fc.bus.Subscribe(truck.EventTemperatureFault, truck.EventFaultCleared)
	fc.spawn(faultTask.Run)
	return nil
}

func (fc *faultAndRouteContext) theSensorSourceReportsTemperatureSamplesInOrder(samples string) error {
	for _, temp := range parseFloatCSV(samples) {
		fc.rawSource.push(temp)
		time.Sleep(10 * time.Millisecond) // let the fault monitor observe each sample as its own tick
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		ev, ok := fc.tempEvents.TryReceive()
		if !ok {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		switch ev.Kind {
		case truck.EventTemperatureFault:
			fc.tempFaultCount++
		case truck.EventFaultCleared:
			if ev.Data["type"] == "temperature" {
				fc.tempClearCount++
			}
		}
	}
	return nil
}

func (fc *faultAndRouteContext) exactlyOneTemperatureFaultEventShouldHaveBeenEmitted() error {
	if fc.tempFaultCount != 1 {
		return fmt.Errorf("want exactly 1 TEMPERATURE_FAULT event, got %d", fc.tempFaultCount)
	}
	return nil
}

func (fc *faultAndRouteContext) exactlyOneFaultClearedEventOfTypeTemperatureShouldHaveBeenEmitted() error {
	if fc.tempClearCount != 1 {
		return fmt.Errorf("want exactly 1 FAULT_CLEARED{type:temperature} event, got %d", fc.tempClearCount)
	}
	return nil
}

func parseWaypoints(s string) ([]truck.Waypoint, error) {
	s = strings.TrimSpace(s)
	var waypoints []truck.Waypoint
	for _, pair := range strings.Split(s, "), (") {
		pair = strings.Trim(pair, "() ")
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed waypoint %q", pair)
		}
		coords := parseFloatCSV(strings.Join(parts, ","))
		if len(coords) != 2 {
			return nil, fmt.Errorf("malformed waypoint %q", pair)
		}
		waypoints = append(waypoints, truck.Waypoint{X: coords[0], Y: coords[1]})
	}
	return waypoints, nil
}

// InitializeFaultAndRouteScenario registers the emergency-dominance,
// route-following, and temperature-edge steps.
func InitializeFaultAndRouteScenario(ctx *godog.ScenarioContext) {
	fc := &faultAndRouteContext{}

	ctx.Before(func(c context.Context, s *godog.Scenario) (context.Context, error) {
		fc.reset()
		return c, nil
	})
	ctx.After(func(c context.Context, s *godog.Scenario, err error) (context.Context, error) {
		for _, cancel := range fc.cancels {
			cancel()
		}
		return c, err
	})

	ctx.Step(`^a running truck in AUTOMATIC mode with velocity setpoint (\d+)$`, fc.aRunningTruckInAutomaticModeWithVelocitySetpoint)
	ctx.Step(`^the operator sends an EMERGENCY_STOP command$`, fc.theOperatorSendsAnEmergencyStopCommand)
	ctx.Step(`^the operator has sent an EMERGENCY_STOP command$`, fc.theOperatorHasSentAnEmergencyStopCommand)
	ctx.Step(`^the operator sends a RESET_EMERGENCY command$`, fc.theOperatorSendsAResetEmergencyCommand)
	ctx.Step(`^within (\d+)ms the status should be (\w+)$`, fc.withinMsTheStatusShouldBe)
	ctx.Step(`^within (\d+)ms the acceleration command should be (\-?\d+)$`, fc.withinMsTheAccelerationCommandShouldBe)
	ctx.Step(`^within (\d+)ms the steering command should be (\-?\d+)$`, fc.withinMsTheSteeringCommandShouldBe)
	ctx.Step(`^within (\d+)ms the emergency flag should be (true|false)$`, fc.withinMsTheEmergencyFlagShouldBe)
	ctx.Step(`^the acceleration command should still be (\-?\d+)$`, fc.theAccelerationCommandShouldStillBe)

	ctx.Step(`^a truck at position (\-?[0-9.]+), (\-?[0-9.]+) facing heading (\-?[0-9.]+)$`, fc.aTruckAtPositionFacingHeading)
	ctx.Step(`^a route planner task with waypoint threshold (\-?[0-9.]+) and max velocity (\-?[0-9.]+)$`, fc.aRoutePlannerTaskWithWaypointThresholdAndMaxVelocity)
	ctx.Step(`^the route (.+) is submitted and the truck enters AUTOMATIC$`, fc.theRouteIsSubmittedAndTheTruckEntersAutomatic)
	ctx.Step(`^within one planning tick the velocity setpoint should be (\-?[0-9.]+)$`, fc.withinOnePlanningTickTheVelocitySetpointShouldBe)
	ctx.Step(`^within one planning tick the heading setpoint should be approximately (\-?[0-9.]+)$`, fc.withinOnePlanningTickTheHeadingSetpointShouldBeApproximately)
	ctx.Step(`^the truck's position advances to (\-?[0-9.]+), (\-?[0-9.]+)$`, fc.theTrucksPositionAdvancesTo)
	ctx.Step(`^a TARGET_REACHED event should be emitted$`, fc.aTargetReachedEventShouldBeEmitted)
	ctx.Step(`^the velocity setpoint should be (\-?[0-9.]+)$`, fc.theVelocitySetpointShouldBe)

	ctx.Step(`^a fault monitoring task with temperature threshold (\-?[0-9.]+)$`, fc.aFaultMonitoringTaskWithTemperatureThreshold)
	ctx.Step(`^the sensor source reports temperature samples ([0-9,\s]+) in order$`, fc.theSensorSourceReportsTemperatureSamplesInOrder)
	ctx.Step(`^exactly one TEMPERATURE_FAULT event should have been emitted$`, fc.exactlyOneTemperatureFaultEventShouldHaveBeenEmitted)
	ctx.Step(`^exactly one FAULT_CLEARED event of type temperature should have been emitted$`, fc.exactlyOneFaultClearedEventOfTypeTemperatureShouldHaveBeenEmitted)
}
