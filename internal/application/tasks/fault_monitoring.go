package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// FaultMonitoringTask watches the raw sensor source for fault conditions and
// emits edge-triggered events: one FAULT event the instant a condition
// starts, one FAULT_CLEARED the instant it ends. It reads the source
// directly rather than the filtered buffer SensorProcessingTask fills, so a
// transient over-temperature spike is never smoothed away by the moving
// average before it can be judged a fault.
type FaultMonitoringTask struct {
	source      SensorSource
	bus         *truck.EventBus
	checkPeriod time.Duration
	thresholds  *shared.LiveThresholds

	prevTempFault bool
	prevElecFault bool
	prevHydrFault bool
}

// NewFaultMonitoringTask creates a task checking for faults on the given period.
func NewFaultMonitoringTask(source SensorSource, bus *truck.EventBus, checkPeriod time.Duration, thresholds *shared.LiveThresholds) *FaultMonitoringTask {
	if thresholds == nil {
		thresholds = shared.NewLiveThresholds(100.0, 1.0)
	}
	return &FaultMonitoringTask{
		source:      source,
		bus:         bus,
		checkPeriod: checkPeriod,
		thresholds:  thresholds,
	}
}

// Run executes the fault-check loop until ctx is cancelled.
func (t *FaultMonitoringTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "fault monitoring task started", nil)

	ticker := time.NewTicker(t.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx, logger)
		case <-ctx.Done():
			logger.Log("INFO", "fault monitoring task stopped", nil)
			return
		}
	}
}

func (t *FaultMonitoringTask) tick(ctx context.Context, logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("fault monitoring panic: %v", r), nil)
		}
	}()

	sample, err := t.source.Read(ctx)
	if err != nil {
		logger.Log("ERROR", fmt.Sprintf("fault monitoring sensor read failed: %v", err), nil)
		return
	}
	now := sample.Timestamp

	tempFault := sample.Temperature > t.thresholds.TempThreshold()
	t.checkEdge(&t.prevTempFault, tempFault, logger, "temperature", truck.EventTemperatureFault,
		map[string]interface{}{"temperature": sample.Temperature}, now)

	t.checkEdge(&t.prevElecFault, sample.ElectricalFault, logger, "electrical", truck.EventElectricalFault, nil, now)

	t.checkEdge(&t.prevHydrFault, sample.HydraulicFault, logger, "hydraulic", truck.EventHydraulicFault, nil, now)
}

func (t *FaultMonitoringTask) checkEdge(prev *bool, current bool, logger common.ContainerLogger, kind string, faultEvent truck.EventKind, data map[string]interface{}, now time.Time) {
	if current && !*prev {
		logger.Log("WARN", fmt.Sprintf("fault detected: %s", kind), data)
		t.bus.Emit(faultEvent, data, now)
		*prev = true
	} else if !current && *prev {
		logger.Log("INFO", fmt.Sprintf("fault cleared: %s", kind), nil)
		t.bus.Emit(truck.EventFaultCleared, map[string]interface{}{"type": kind}, now)
		*prev = false
	}
}
