package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/logging"
	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/logsink"
	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/sensors"
	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/transport"
	"github.com/osavioguedes/autonomous-vehicle/internal/application/commanddispatch"
	"github.com/osavioguedes/autonomous-vehicle/internal/application/controller"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
	"github.com/osavioguedes/autonomous-vehicle/internal/infrastructure/config"
	"github.com/osavioguedes/autonomous-vehicle/internal/infrastructure/pidfile"
)

var (
	configPath string
	forceFlag  bool
	mqttFlag   bool
)

// NewRootCommand builds the single-subcommand CLI a truck-controller process
// runs as: a positional truck id, a config path override, --force to take
// over a wedged prior instance's PID file, and --mqtt to enable the
// websocket transport. Unlike the reference CLI's remote daemon client, this
// command IS the daemon: RunE runs the whole lifecycle in-process rather
// than dialing out to one.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truck-controller [truck-id]",
		Short: "Run a single autonomous mine haul truck's control plane",
		Long: `truck-controller runs the embedded control plane for one autonomous
mine haul truck: periodic sensor filtering, PID velocity/heading control,
waypoint-following route planning, a latching fault/mode state machine, and
pub/sub telemetry to a central station.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runController,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (defaults to ./config.yaml, ./configs/config.yaml, /etc/minetruck)")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "kill any existing controller for this truck and start a new one")
	cmd.Flags().BoolVar(&mqttFlag, "mqtt", false, "enable the websocket transport so a central station can command and observe this truck")

	return cmd
}

func runController(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid truck id %q: %w", args[0], err)
		}
		// Setting the env var viper already watches (MT_DAEMON_TRUCK_ID, from
		// the daemon.truck_id key) lets LoadConfig derive PIDFile/SQLitePath
		// defaults from the real truck id instead of reassigning it after
		// those per-truck paths have already been defaulted from TruckID=1.
		if err := os.Setenv("MT_DAEMON_TRUCK_ID", args[0]); err != nil {
			return fmt.Errorf("failed to set truck id: %w", err)
		}
	}

	cfg := config.MustLoadConfig(configPath)

	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		if !forceFlag {
			return fmt.Errorf("%w (use --force to take over)", err)
		}
		fmt.Println("force mode enabled - taking over existing controller...")
		if killErr := pf.KillExisting(); killErr != nil {
			return fmt.Errorf("failed to take over existing controller: %w", killErr)
		}
		if err := pf.Acquire(); err != nil {
			return fmt.Errorf("failed to acquire PID file lock after takeover: %w", err)
		}
	}
	defer func() {
		if err := pf.Release(); err != nil {
			fmt.Printf("warning: failed to release PID file: %v\n", err)
		}
	}()

	return run(cfg)
}

// actuatorFeed hands SimulatedSensorSource a live view of the controller's
// own actuator commands. It exists because the simulator needs to read what
// the controller is telling it to do, but the controller doesn't exist
// until after the sensor source it's built from does; ctrl is patched in
// once construction completes.
type actuatorFeed struct {
	ctrl *controller.Controller
}

func (f *actuatorFeed) Actuators() (acceleration, steering float64) {
	if f.ctrl == nil {
		return 0, 0
	}
	state := f.ctrl.Snapshot()
	return state.AccelerationCmd, state.SteeringCmd
}

// run wires the full object graph for one truck and blocks until it
// receives a SHUTDOWN event or an OS signal, the same run(cfg) shape the
// reference daemon's entrypoint uses, generalized from a multi-domain
// game-state graph down to this module's single control plane.
func run(cfg *config.Config) error {
	fmt.Printf("truck-controller starting (truck %d)\n", cfg.Daemon.TruckID)

	logger, err := logging.NewStructuredLogger(cfg.Logging, cfg.Daemon.TruckID)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Close()

	csvSink, err := logsink.NewCSVSink(cfg.Daemon.LogDir, cfg.Daemon.TruckID)
	if err != nil {
		return fmt.Errorf("failed to open CSV sink: %w", err)
	}
	sqliteSink, err := logsink.NewSQLiteSink(cfg.Daemon.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite sink: %w", err)
	}
	logSink := logsink.NewMultiSink(csvSink, sqliteSink)
	defer logSink.Close()

	clock := shared.NewRealClock()

	if cfg.Daemon.RealSensorBus {
		return fmt.Errorf("real_sensor_bus is set but no real field-bus sensor adapter exists yet; leave it false to use the simulator")
	}
	feed := &actuatorFeed{}
	sensorSource := sensors.NewSimulatedSensorSource(
		feed,
		sensors.DefaultDynamicsParameters(),
		sensors.DefaultRandomFaultProbabilities(),
		cfg.Timing.FaultMonitoring,
		cfg.Timing.Simulation,
		nil,
		clock,
	)

	ctrl := controller.New(
		cfg.Daemon.TruckID,
		sensorSource,
		sensorSource,
		logSink,
		controller.Timings{
			SensorProcessing: cfg.Timing.SensorProcessing,
			FaultMonitoring:  cfg.Timing.FaultMonitoring,
			CommandLogic:     cfg.Timing.CommandLogic,
			Control:          cfg.Timing.Control,
			RoutePlanning:    cfg.Timing.RoutePlanning,
			DataCollection:   cfg.Timing.DataCollection,
			TaskStagger:      cfg.Timing.TaskStagger,
		},
		controller.Thresholds{
			FilterOrder:          cfg.Filter.Order,
			TempThreshold:        cfg.Fault.TempThreshold,
			WaypointThreshold:    cfg.Route.WaypointThreshold,
			MaxVelocity:          cfg.Route.MaxVelocity,
			CommandQueueCapacity: cfg.Queue.CommandCapacity,
			RouteQueueCapacity:   cfg.Queue.RouteCapacity,
			BufferSize:           cfg.Buffer.Size,
			RecentLogCount:       controller.DefaultThresholds().RecentLogCount,
		},
		controller.Gains{
			VelocityKp: cfg.PID.VelocityKp, VelocityKi: cfg.PID.VelocityKi, VelocityKd: cfg.PID.VelocityKd,
			AngularKp: cfg.PID.AngularKp, AngularKi: cfg.PID.AngularKi, AngularKd: cfg.PID.AngularKd,
			MaxAccel: cfg.PID.MaxAcceleration, MaxSteering: cfg.PID.MaxSteering,
		},
		clock,
		nil,
	)
	feed.ctrl = ctrl
	cfg.WatchReload(ctrl.UpdateThresholds)

	var broker *transport.WebSocketBroker
	if mqttFlag {
		broker = transport.NewWebSocketBroker(cfg.Daemon.TruckID, cfg.Transport.Address)
		wireTransport(broker, ctrl)
	}

	mediator := commanddispatch.NewMediator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := mediator.Send(ctx, &commanddispatch.StartControllerCommand{Controller: ctrl}); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}

	var brokerErrCh chan error
	if broker != nil {
		brokerErrCh = make(chan error, 1)
		go func() { brokerErrCh <- broker.Run(ctx) }()
		go publishTelemetry(ctx, broker, ctrl, cfg.Transport.PublishInterval)
	}

	shutdownSub := ctrl.EventBus().Subscribe(truck.EventShutdown)
	defer shutdownSub.Close()

	select {
	case <-ctx.Done():
		fmt.Println("shutdown signal received")
	case <-waitForEvent(ctx, shutdownSub):
		fmt.Println("controller-initiated shutdown")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
	defer cancel()
	if _, err := mediator.Send(stopCtx, &commanddispatch.StopControllerCommand{Controller: ctrl}); err != nil {
		fmt.Printf("warning: controller stop reported an error: %v\n", err)
	}

	if broker != nil {
		if err := broker.Close(); err != nil {
			fmt.Printf("warning: transport close reported an error: %v\n", err)
		}
		<-brokerErrCh
	}

	fmt.Println("truck-controller stopped cleanly")
	return nil
}

// waitForEvent adapts Subscription.Wait's blocking-with-timeout shape into a
// channel so it can sit alongside ctx.Done() in a select.
func waitForEvent(ctx context.Context, sub *truck.Subscription) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		sub.Wait(ctx, 0)
	}()
	return ch
}

// wireTransport forwards every inbound transport message to the controller
// and lets a remote operator drive setpoints directly, mirroring the
// reference command/setpoint/route dispatch the embedded daemon exposes.
func wireTransport(broker *transport.WebSocketBroker, ctrl *controller.Controller) {
	broker.OnCommand(func(cmd truck.Command) {
		ctrl.EnqueueCommand(cmd)
	})
	broker.OnSetpoint(func(velocity, angular float64) {
		ctrl.ApplyRemoteSetpoint(velocity, angular)
	})
	broker.OnRoute(func(route []truck.Waypoint) {
		ctrl.EnqueueRoute(route)
	})
}

// publishTelemetry periodically pushes state and position snapshots to the
// transport, independent of the broker's own per-publish throttle.
func publishTelemetry(ctx context.Context, broker *transport.WebSocketBroker, ctrl *controller.Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := ctrl.Snapshot()
			_ = broker.PublishState(ctx, state)
			_ = broker.PublishPosition(ctx, state.PositionX, state.PositionY, state.Theta)
		}
	}
}
