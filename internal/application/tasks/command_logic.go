package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// FaultClearer is anything CommandLogic can ask to clear a spontaneously
// injected fault when an operator issues RESET_FAULT: a simulated sensor
// source, or a real field-bus adapter's reset line.
type FaultClearer interface {
	ClearFaults(ctx context.Context) error
}

// CommandLogicTask drains the operator command queue, applies each command
// to shared state, folds the latest filtered sample into it, and derives the
// vehicle's running/stopped/fault/emergency status every cycle.
type CommandLogicTask struct {
	buffer       *truck.CircularBuffer
	state        *truck.SharedState
	bus          *truck.EventBus
	commands     *truck.CommandQueue
	updatePeriod time.Duration
	clock        shared.Clock
	faultClearer FaultClearer
	thresholds   *shared.LiveThresholds

	faultEvents *truck.Subscription
}

// NewCommandLogicTask creates a task applying queued commands on the given
// period. faultClearer may be nil, in which case RESET_FAULT only clears the
// fault booleans in shared state without reaching back into a sensor source.
func NewCommandLogicTask(buffer *truck.CircularBuffer, state *truck.SharedState, bus *truck.EventBus, commands *truck.CommandQueue, updatePeriod time.Duration, clock shared.Clock, faultClearer FaultClearer, thresholds *shared.LiveThresholds) *CommandLogicTask {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if thresholds == nil {
		thresholds = shared.NewLiveThresholds(100.0, 1.0)
	}
	return &CommandLogicTask{
		buffer:       buffer,
		state:        state,
		bus:          bus,
		commands:     commands,
		updatePeriod: updatePeriod,
		clock:        clock,
		faultClearer: faultClearer,
		thresholds:   thresholds,
		faultEvents:  bus.Subscribe(truck.EventTemperatureFault, truck.EventElectricalFault, truck.EventHydraulicFault),
	}
}

// Run executes the command-processing loop until ctx is cancelled.
func (t *CommandLogicTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "command logic task started", nil)
	defer t.faultEvents.Close()

	ticker := time.NewTicker(t.updatePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx, logger)
		case <-ctx.Done():
			logger.Log("INFO", "command logic task stopped", nil)
			return
		}
	}
}

func (t *CommandLogicTask) tick(ctx context.Context, logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("command logic panic: %v", r), nil)
		}
	}()

	t.processCommands(ctx, logger)

	if latest, ok := t.buffer.ReadLatest(); ok {
		t.state.SetPosition(latest.PositionX, latest.PositionY, latest.Theta, latest.Velocity)
		t.state.SetFaults(truck.FaultUpdate{
			Temperature: &latest.Temperature,
			Electrical:  &latest.ElectricalFault,
			Hydraulic:   &latest.HydraulicFault,
		})
	}

	t.updateVehicleStatus()
	t.drainFaultEvents(logger)
}

func (t *CommandLogicTask) processCommands(ctx context.Context, logger common.ContainerLogger) {
	for {
		cmd, ok := t.commands.TryGet()
		if !ok {
			return
		}
		t.executeCommand(ctx, cmd, logger)
	}
}

func (t *CommandLogicTask) executeCommand(ctx context.Context, cmd truck.Command, logger common.ContainerLogger) {
	now := t.clock.Now()
	logger.Log("DEBUG", fmt.Sprintf("executing command: %s", cmd.Kind), nil)

	switch cmd.Kind {
	case truck.CommandEnableAutomatic:
		t.state.SetMode(truck.ModeAutomaticRemote)
		t.state.SetActuators(0, 0)
		v, a := 0.0, 0.0
		t.state.SetSetpoints(&v, &a)
		t.bus.Emit(truck.EventModeChanged, map[string]interface{}{"mode": "AUTOMATIC"}, now)

	case truck.CommandDisableAutomatic:
		t.state.SetMode(truck.ModeManualLocal)
		t.state.SetActuators(0, 0)
		v, a := 0.0, 0.0
		t.state.SetSetpoints(&v, &a)
		t.bus.Emit(truck.EventModeChanged, map[string]interface{}{"mode": "MANUAL"}, now)

	case truck.CommandEmergencyStop:
		emergency := true
		t.state.SetFaults(truck.FaultUpdate{Emergency: &emergency})
		t.state.SetStatus(truck.StatusEmergency)
		t.state.SetActuators(0, 0)
		t.bus.Emit(truck.EventEmergencyStop, nil, now)

	case truck.CommandResetEmergency:
		emergency := false
		t.state.SetFaults(truck.FaultUpdate{Emergency: &emergency})
		t.bus.Emit(truck.EventEmergencyReset, nil, now)

	case truck.CommandResetFault:
		electrical, hydraulic := false, false
		t.state.SetFaults(truck.FaultUpdate{Electrical: &electrical, Hydraulic: &hydraulic})
		if t.faultClearer != nil {
			if err := t.faultClearer.ClearFaults(ctx); err != nil {
				logger.Log("ERROR", fmt.Sprintf("fault clearer failed: %v", err), nil)
			}
		}
		t.bus.Emit(truck.EventFaultCleared, map[string]interface{}{"type": "manual_reset"}, now)

	case truck.CommandStop:
		t.state.SetActuators(0, 0)
		v, a := 0.0, 0.0
		t.state.SetSetpoints(&v, &a)

	case truck.CommandShutdown:
		t.bus.Emit(truck.EventShutdown, nil, now)

	default:
		if t.state.IsManual() {
			t.applyManualCommand(cmd)
		}
	}
}

func (t *CommandLogicTask) applyManualCommand(cmd truck.Command) {
	value := func(def float64) float64 {
		if cmd.Value != nil {
			return *cmd.Value
		}
		return def
	}
	accel, _ := t.state.Actuators()

	switch cmd.Kind {
	case truck.CommandAccelerate, truck.CommandMoveForward:
		t.state.SetActuators(value(0.5), 0)
	case truck.CommandBrake, truck.CommandMoveBackward:
		t.state.SetActuators(value(-0.5), 0)
	case truck.CommandSteerLeft, truck.CommandTurnLeft:
		t.state.SetActuators(accel, value(0.5))
	case truck.CommandSteerRight, truck.CommandTurnRight:
		t.state.SetActuators(accel, value(-0.5))
	}
}

func (t *CommandLogicTask) updateVehicleStatus() {
	state := t.state.Snapshot()

	switch {
	case state.EmergencyStop:
		t.state.SetStatus(truck.StatusEmergency)
	case state.HasFault(t.thresholds.TempThreshold()):
		t.state.SetStatus(truck.StatusFault)
	default:
		isMoving := abs(state.Velocity) > 0.1 ||
			(state.IsAutomatic() && abs(state.VelocitySetpoint) > 0.1) ||
			abs(state.AccelerationCmd) > 0.01
		if isMoving {
			t.state.SetStatus(truck.StatusRunning)
		} else {
			t.state.SetStatus(truck.StatusStopped)
		}
	}
}

func (t *CommandLogicTask) drainFaultEvents(logger common.ContainerLogger) {
	for {
		ev, ok := t.faultEvents.TryReceive()
		if !ok {
			return
		}
		logger.Log("DEBUG", fmt.Sprintf("fault event observed: %v", ev.Kind), nil)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
