package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/control"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// NavigationControlTask runs the velocity and angular PID loops while the
// truck is in automatic mode, toggling bumpless transfer on every mode edge
// and disabling both controllers the instant a fault event arrives.
type NavigationControlTask struct {
	state             *truck.SharedState
	bus               *truck.EventBus
	controlPeriod     time.Duration
	velocityCtrl      *control.VelocityController
	angularCtrl       *control.AngularController
	prevModeAutomatic bool

	faultEvents *truck.Subscription
}

// NewNavigationControlTask creates a task driving actuators on the given control period.
func NewNavigationControlTask(state *truck.SharedState, bus *truck.EventBus, controlPeriod time.Duration, velocityCtrl *control.VelocityController, angularCtrl *control.AngularController) *NavigationControlTask {
	return &NavigationControlTask{
		state:         state,
		bus:           bus,
		controlPeriod: controlPeriod,
		velocityCtrl:  velocityCtrl,
		angularCtrl:   angularCtrl,
		faultEvents: bus.Subscribe(
			truck.EventEmergencyStop,
			truck.EventElectricalFault,
			truck.EventHydraulicFault,
		),
	}
}

// NewDefaultNavigationControlTask builds the controllers with the gains and
// actuator limits used throughout the fleet.
func NewDefaultNavigationControlTask(state *truck.SharedState, bus *truck.EventBus, controlPeriod time.Duration, clock shared.Clock) *NavigationControlTask {
	velocityCtrl := control.NewVelocityController(0.5, 0.1, 0.05, 1.0, clock)
	angularCtrl := control.NewAngularController(1.0, 0.05, 0.2, 1.0, clock)
	return NewNavigationControlTask(state, bus, controlPeriod, velocityCtrl, angularCtrl)
}

// Run executes the control loop until ctx is cancelled.
func (t *NavigationControlTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "navigation control task started", nil)
	defer t.faultEvents.Close()

	ticker := time.NewTicker(t.controlPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(logger)
		case <-ctx.Done():
			logger.Log("INFO", "navigation control task stopped", nil)
			return
		}
	}
}

func (t *NavigationControlTask) tick(logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("navigation control panic: %v", r), nil)
		}
	}()

	state := t.state.Snapshot()

	if state.IsAutomatic() && !t.prevModeAutomatic {
		t.velocityCtrl.Enable(state.Velocity)
		t.angularCtrl.Enable(state.Theta)
		logger.Log("INFO", "controllers enabled (bumpless transfer)", nil)
	} else if !state.IsAutomatic() && t.prevModeAutomatic {
		t.velocityCtrl.Disable()
		t.angularCtrl.Disable()
		logger.Log("INFO", "controllers disabled", nil)
	}
	t.prevModeAutomatic = state.IsAutomatic()

	switch {
	case state.IsAutomatic() && state.Status != truck.StatusEmergency && state.Status != truck.StatusFault:
		accelCmd := t.velocityCtrl.Compute(state.Velocity, state.VelocitySetpoint)
		steerCmd := t.angularCtrl.Compute(state.Theta, state.AngularSetpoint)
		t.state.SetActuators(accelCmd, steerCmd)
	case state.IsManual() && state.Status != truck.StatusFault:
		t.state.SetSetpoints(&state.Velocity, &state.Theta)
	}

	t.checkFaultEvents(logger)
}

func (t *NavigationControlTask) checkFaultEvents(logger common.ContainerLogger) {
	for {
		ev, ok := t.faultEvents.TryReceive()
		if !ok {
			return
		}
		logger.Log("WARN", fmt.Sprintf("fault observed, disabling control: %v", ev.Kind), nil)
		t.velocityCtrl.Disable()
		t.angularCtrl.Disable()
		t.state.SetActuators(0, 0)
	}
}
