package truck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestSharedState_SnapshotReturnsValueCopy(t *testing.T) {
	// Arrange
	s := truck.NewSharedState(1)
	s.SetPosition(1, 2, 0.5, 3)

	// Act
	snap := s.Snapshot()
	s.SetPosition(99, 99, 99, 99)

	// Assert - mutating shared state after the snapshot must not affect it
	assert.Equal(t, 1.0, snap.PositionX)
	assert.Equal(t, 2.0, snap.PositionY)
}

func TestSharedState_SetFaultsOnlyTouchesNonNilFields(t *testing.T) {
	// Arrange
	s := truck.NewSharedState(1)
	temp := 120.0
	s.SetFaults(truck.FaultUpdate{Temperature: &temp})

	// Act
	electrical := true
	s.SetFaults(truck.FaultUpdate{Electrical: &electrical})
	snap := s.Snapshot()

	// Assert
	require.True(t, snap.ElectricalFault)
	assert.Equal(t, 120.0, snap.Temperature)
	assert.True(t, snap.HasFault(100.0))
}

func TestSharedState_SetTargetLeavesUntouchedFieldsAlone(t *testing.T) {
	// Arrange
	s := truck.NewSharedState(1)
	x, y := 10.0, 20.0
	s.SetTarget(&x, &y)

	// Act - only update Y
	newY := 30.0
	s.SetTarget(nil, &newY)
	snap := s.Snapshot()

	// Assert
	require.NotNil(t, snap.TargetX)
	assert.Equal(t, 10.0, *snap.TargetX)
	assert.Equal(t, 30.0, *snap.TargetY)
}

func TestSharedState_ModeHelpers(t *testing.T) {
	// Arrange
	s := truck.NewSharedState(1)

	// Act / Assert
	assert.True(t, s.IsManual())
	s.SetMode(truck.ModeAutomaticRemote)
	assert.True(t, s.IsAutomatic())
	assert.False(t, s.IsManual())
}
