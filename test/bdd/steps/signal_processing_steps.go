package steps

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/tasks"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/control"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// manualSensorSource is a SensorSource a test can push samples into on
// demand, guarded by a mutex since the sensor processing task's own
// goroutine polls it concurrently.
type manualSensorSource struct {
	mu     sync.Mutex
	sample truck.SensorSample
}

func (s *manualSensorSource) Read(ctx context.Context) (truck.SensorSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample, nil
}

func (s *manualSensorSource) set(sample truck.SensorSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = sample
}

type signalProcessingContext struct {
	filter  *control.MovingAverageFilter
	outputs []float64

	angular        *control.AngularController
	angularHeading float64
	angularErr     float64

	cancel context.CancelFunc
	source *manualSensorSource
	buffer *truck.CircularBuffer
}

func (sc *signalProcessingContext) reset() {
	sc.filter = nil
	sc.outputs = nil
	sc.angular = nil
	sc.angularErr = 0
	if sc.cancel != nil {
		sc.cancel()
		sc.cancel = nil
	}
	sc.source = nil
	sc.buffer = nil
}

func (sc *signalProcessingContext) aMovingAverageFilterOfOrder(order int) error {
	sc.filter = control.NewMovingAverageFilter(order)
	return nil
}

func (sc *signalProcessingContext) theFilterIsFedTheSamplesInOrder(samples string) error {
	for _, v := range parseFloatCSV(samples) {
		sc.outputs = append(sc.outputs, sc.filter.Filter(v))
	}
	return nil
}

func (sc *signalProcessingContext) theFilterIsFedTheConstantValueForSamples(value float64, count int) error {
	for i := 0; i < count; i++ {
		sc.outputs = append(sc.outputs, sc.filter.Filter(value))
	}
	return nil
}

func (sc *signalProcessingContext) theFilterOutputsShouldBeInOrder(expected string) error {
	want := parseFloatCSV(expected)
	if len(want) != len(sc.outputs) {
		return fmt.Errorf("expected %d outputs, got %d", len(want), len(sc.outputs))
	}
	for i, w := range want {
		if math.Abs(w-sc.outputs[i]) > 1e-9 {
			return fmt.Errorf("output %d: want %v, got %v", i, w, sc.outputs[i])
		}
	}
	return nil
}

func (sc *signalProcessingContext) anAngularControllerEnabledAtHeading(heading float64) error {
	sc.angular = control.NewAngularController(1.0, 0.05, 0.2, 1.0, shared.NewRealClock())
	sc.angular.Enable(heading)
	sc.angularHeading = heading
	return nil
}

func (sc *signalProcessingContext) itComputesSteeringTowardTargetHeading(target float64) error {
	sc.angular.Compute(sc.angularHeading, target)
	sc.angularErr = normalizedAngleError(sc.angularHeading, target)
	return nil
}

func (sc *signalProcessingContext) theNormalizedHeadingErrorShouldBeApproximately(expected float64) error {
	if math.Abs(expected-sc.angularErr) > 1e-4 {
		return fmt.Errorf("want error ~%v, got %v", expected, sc.angularErr)
	}
	return nil
}

func (sc *signalProcessingContext) aSensorProcessingTaskWithFilterOrderAndPeriod(order int, period string) error {
	d, err := time.ParseDuration(period)
	if err != nil {
		return err
	}
	sc.source = &manualSensorSource{}
	sc.buffer = truck.NewCircularBuffer(10)
	task := tasks.NewSensorProcessingTask(sc.source, sc.buffer, order, d)

	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	go task.Run(ctx)
	return nil
}

func (sc *signalProcessingContext) aSensorSampleWithElectricalFaultTrueArrives() error {
	sc.source.set(truck.SensorSample{ElectricalFault: true, Timestamp: time.Now()})
	return nil
}

func (sc *signalProcessingContext) theNextFilteredSampleHasElectricalFaultTrue() error {
	var last truck.FilteredSample
	ok := eventually(500*time.Millisecond, func() bool {
		sample, found := sc.buffer.ReadLatest()
		if !found {
			return false
		}
		last = sample
		return sample.ElectricalFault
	})
	if !ok {
		return fmt.Errorf("electrical fault never propagated, last sample: %+v", last)
	}
	return nil
}

// eventually polls fn every 2ms until it returns true or the deadline passes.
func eventually(timeout time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return fn()
}

func normalizedAngleError(current, target float64) float64 {
	return math.Atan2(math.Sin(target-current), math.Cos(target-current))
}

func parseFloatCSV(s string) []float64 {
	var out []float64
	var cur string
	flush := func() {
		if cur == "" {
			return
		}
		var v float64
		fmt.Sscanf(cur, "%f", &v)
		out = append(out, v)
		cur = ""
	}
	for _, r := range s {
		switch r {
		case ',':
			flush()
		case ' ':
		default:
			cur += string(r)
		}
	}
	flush()
	return out
}

// InitializeSignalProcessingScenario registers the moving-average filter,
// angular wrap, and sensor fault pass-through steps.
func InitializeSignalProcessingScenario(ctx *godog.ScenarioContext) {
	sc := &signalProcessingContext{}

	ctx.Before(func(c context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return c, nil
	})
	ctx.After(func(c context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if sc.cancel != nil {
			sc.cancel()
		}
		return c, err
	})

	ctx.Step(`^a moving average filter of order (\d+)$`, sc.aMovingAverageFilterOfOrder)
	ctx.Step(`^the filter is fed the samples ([0-9,\s]+) in order$`, sc.theFilterIsFedTheSamplesInOrder)
	ctx.Step(`^the filter is fed the constant value (\d+) for (\d+) samples$`, sc.theFilterIsFedTheConstantValueForSamples)
	ctx.Step(`^the filter outputs should be ([0-9,\s]+) in order$`, sc.theFilterOutputsShouldBeInOrder)

	ctx.Step(`^an angular controller enabled at heading ([\-0-9.]+)$`, sc.anAngularControllerEnabledAtHeading)
	ctx.Step(`^it computes steering toward target heading ([\-0-9.]+)$`, sc.itComputesSteeringTowardTargetHeading)
	ctx.Step(`^the normalized heading error should be approximately ([\-0-9.]+)$`, sc.theNormalizedHeadingErrorShouldBeApproximately)

	ctx.Step(`^a sensor processing task with filter order (\d+) and period ([0-9a-z]+)$`, sc.aSensorProcessingTaskWithFilterOrderAndPeriod)
	ctx.Step(`^a sensor sample with electrical_fault true arrives$`, sc.aSensorSampleWithElectricalFaultTrueArrives)
	ctx.Step(`^the next filtered sample has electrical_fault true$`, sc.theNextFilteredSampleHasElectricalFaultTrue)
}
