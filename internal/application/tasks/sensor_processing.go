package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/control"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// SensorSource is anything the sensor processing task can poll for a raw
// reading: a simulated vehicle, or a real field-bus adapter.
type SensorSource interface {
	Read(ctx context.Context) (truck.SensorSample, error)
}

// SensorProcessingTask polls a SensorSource at a fixed period, runs every
// channel through its own moving-average filter, and writes the filtered
// result into the shared circular buffer for downstream tasks.
type SensorProcessingTask struct {
	source       SensorSource
	buffer       *truck.CircularBuffer
	filterX      *control.MovingAverageFilter
	filterY      *control.MovingAverageFilter
	filterTheta  *control.MovingAverageFilter
	filterVel    *control.MovingAverageFilter
	filterTemp   *control.MovingAverageFilter
	samplePeriod time.Duration
}

// NewSensorProcessingTask creates a task filtering each channel with a
// moving average of the given order.
func NewSensorProcessingTask(source SensorSource, buffer *truck.CircularBuffer, filterOrder int, samplePeriod time.Duration) *SensorProcessingTask {
	return &SensorProcessingTask{
		source:       source,
		buffer:       buffer,
		filterX:      control.NewMovingAverageFilter(filterOrder),
		filterY:      control.NewMovingAverageFilter(filterOrder),
		filterTheta:  control.NewMovingAverageFilter(filterOrder),
		filterVel:    control.NewMovingAverageFilter(filterOrder),
		filterTemp:   control.NewMovingAverageFilter(filterOrder),
		samplePeriod: samplePeriod,
	}
}

// Run executes the filtering loop until ctx is cancelled.
func (t *SensorProcessingTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "sensor processing task started", map[string]interface{}{
		"filter_order": t.filterX.Order(),
	})

	ticker := time.NewTicker(t.samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx, logger)
		case <-ctx.Done():
			logger.Log("INFO", "sensor processing task stopped", nil)
			return
		}
	}
}

func (t *SensorProcessingTask) tick(ctx context.Context, logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("sensor processing panic: %v", r), nil)
		}
	}()

	sample, err := t.source.Read(ctx)
	if err != nil {
		logger.Log("ERROR", fmt.Sprintf("sensor read failed: %v", err), nil)
		return
	}

	filtered := truck.FilteredSample{
		PositionX:       t.filterX.Filter(sample.PositionX),
		PositionY:       t.filterY.Filter(sample.PositionY),
		Theta:           t.filterTheta.Filter(sample.Theta),
		Velocity:        t.filterVel.Filter(sample.Velocity),
		Temperature:     t.filterTemp.Filter(sample.Temperature),
		ElectricalFault: sample.ElectricalFault,
		HydraulicFault:  sample.HydraulicFault,
		Timestamp:       sample.Timestamp,
	}

	t.buffer.Write(filtered)
}
