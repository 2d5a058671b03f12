package sensors

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// initialX/initialY/initialTheta are the simulated truck's starting pose,
// somewhere in the middle of the mine site.
const (
	initialX     = 50.0
	initialY     = 37.5
	initialTheta = 0.0
)

// ActuatorReader is the slice of SharedState the simulator needs: the
// latest actuator command to feed into the dynamics model.
type ActuatorReader interface {
	Actuators() (acceleration, steering float64)
}

// SimulatedSensorSource stands in for the physical truck's sensor bus: it
// runs its own dynamics simulation, deriving temperature from the vehicle's
// effort and adding per-channel Gaussian noise, and periodically rolls for
// spontaneous electrical/hydraulic faults. SensorProcessingTask polls it
// through Read like it would a real field-bus adapter.
type SimulatedSensorSource struct {
	mu sync.Mutex

	actuators        ActuatorReader
	dynamics         *VehicleDynamics
	noise            ChannelNoise
	faults           *RandomFaultGenerator
	clock            shared.Clock
	simulationPeriod time.Duration

	electricalFault bool
	hydraulicFault  bool
	latest          truck.SensorSample
}

// NewSimulatedSensorSource builds a simulator reading actuator commands from
// actuators, integrating dynamics every simulationPeriod.
func NewSimulatedSensorSource(
	actuators ActuatorReader,
	params DynamicsParameters,
	faultProbabilities RandomFaultProbabilities,
	faultCheckPeriod time.Duration,
	simulationPeriod time.Duration,
	rng *rand.Rand,
	clock shared.Clock,
) *SimulatedSensorSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}

	dynamics := NewVehicleDynamics(params)
	dynamics.SetPosition(initialX, initialY, initialTheta)

	s := &SimulatedSensorSource{
		actuators:        actuators,
		dynamics:         dynamics,
		noise:            DefaultChannelNoise(rng),
		clock:            clock,
		simulationPeriod: simulationPeriod,
		latest: truck.SensorSample{
			PositionX: initialX,
			PositionY: initialY,
			Theta:     initialTheta,
			Timestamp: clock.Now(),
		},
	}
	s.faults = NewRandomFaultGenerator(s.setElectricalFault, s.setHydraulicFault, faultCheckPeriod, faultProbabilities, rng)
	return s
}

// Run drives the dynamics simulation and the background fault generator
// until ctx is cancelled. The controller's object graph launches this
// alongside the six domain tasks, upstream of SensorProcessingTask.
func (s *SimulatedSensorSource) Run(ctx context.Context) {
	go s.faults.Run(ctx)

	ticker := time.NewTicker(s.simulationPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-ctx.Done():
			return
		}
	}
}

func (s *SimulatedSensorSource) tick() {
	accel, steer := s.actuators.Actuators()
	dt := s.simulationPeriod.Seconds()

	s.dynamics.Update(accel, steer, dt)
	x, y, theta, velocity := s.dynamics.State()
	temperature := 25.0 + math.Abs(velocity)*2.0 + math.Abs(accel)*5.0

	s.mu.Lock()
	s.latest = truck.SensorSample{
		PositionX:       s.noise.PositionX.Add(x),
		PositionY:       s.noise.PositionY.Add(y),
		Theta:           s.noise.Theta.Add(theta),
		Velocity:        s.noise.Velocity.Add(velocity),
		Temperature:     s.noise.Temperature.Add(temperature),
		ElectricalFault: s.electricalFault,
		HydraulicFault:  s.hydraulicFault,
		Timestamp:       s.clock.Now(),
	}
	s.mu.Unlock()
}

func (s *SimulatedSensorSource) setElectricalFault(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.electricalFault = active
}

func (s *SimulatedSensorSource) setHydraulicFault(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydraulicFault = active
}

// Read implements tasks.SensorSource, returning the most recently simulated
// reading.
func (s *SimulatedSensorSource) Read(ctx context.Context) (truck.SensorSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, nil
}

// ClearFaults implements tasks.FaultClearer: a RESET_FAULT command clears
// any spontaneous fault this simulator has injected.
func (s *SimulatedSensorSource) ClearFaults(ctx context.Context) error {
	s.faults.ClearAllFaults()
	return nil
}

// EmergencyStop halts the simulated vehicle in place without resetting its
// position or heading; the next Read already reports zero velocity.
func (s *SimulatedSensorSource) EmergencyStop() {
	s.dynamics.EmergencyStop()
	s.mu.Lock()
	s.latest.Velocity = 0
	s.mu.Unlock()
}

// SetPosition teleports the simulated vehicle; tests use it to place the
// vehicle before a scenario.
func (s *SimulatedSensorSource) SetPosition(x, y, theta float64) {
	s.dynamics.SetPosition(x, y, theta)
}
