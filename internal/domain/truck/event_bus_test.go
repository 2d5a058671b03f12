package truck_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestEventBus_DeliversToInterestedSubscriberOnly(t *testing.T) {
	// Arrange
	bus := truck.NewEventBus()
	faults := bus.Subscribe(truck.EventElectricalFault)
	modes := bus.Subscribe(truck.EventModeChanged)
	defer faults.Close()
	defer modes.Close()

	// Act
	bus.Emit(truck.EventElectricalFault, nil, time.Now())

	// Assert
	ev, ok := faults.Wait(context.Background(), 100*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, truck.EventElectricalFault, ev.Kind)

	_, ok = modes.Wait(context.Background(), 20*time.Millisecond)
	assert.False(t, ok)
}

func TestEventBus_TwoSubscribersBothSeeSameEvent(t *testing.T) {
	// Arrange - independent consumers must not steal each other's delivery
	bus := truck.NewEventBus()
	subA := bus.Subscribe(truck.EventEmergencyStop)
	subB := bus.Subscribe(truck.EventEmergencyStop)
	defer subA.Close()
	defer subB.Close()

	// Act
	bus.Emit(truck.EventEmergencyStop, nil, time.Now())

	// Assert
	_, okA := subA.Wait(context.Background(), 100*time.Millisecond)
	_, okB := subB.Wait(context.Background(), 100*time.Millisecond)
	assert.True(t, okA)
	assert.True(t, okB)
}

func TestEventBus_ShutdownWakesBlockedWait(t *testing.T) {
	// Arrange
	bus := truck.NewEventBus()
	sub := bus.Subscribe(truck.EventShutdown)

	done := make(chan bool, 1)
	go func() {
		_, ok := sub.Wait(context.Background(), time.Second)
		done <- ok
	}()

	// Act
	time.Sleep(10 * time.Millisecond)
	bus.Shutdown()

	// Assert
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Shutdown")
	}
}
