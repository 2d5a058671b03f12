package truck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestCommandQueue_TryPutFailsWhenFull(t *testing.T) {
	// Arrange
	q := truck.NewCommandQueue(1)
	require.True(t, q.TryPut(truck.Command{Kind: truck.CommandStop}))

	// Act
	ok := q.TryPut(truck.Command{Kind: truck.CommandBrake})

	// Assert - second command dropped, queue capacity is 1
	assert.False(t, ok)
	assert.Equal(t, 1, q.Len())
}

func TestCommandQueue_TryGetIsFIFO(t *testing.T) {
	// Arrange
	q := truck.NewCommandQueue(2)
	q.TryPut(truck.Command{Kind: truck.CommandAccelerate})
	q.TryPut(truck.Command{Kind: truck.CommandBrake})

	// Act
	first, ok1 := q.TryGet()
	second, ok2 := q.TryGet()
	_, ok3 := q.TryGet()

	// Assert
	require.True(t, ok1)
	require.True(t, ok2)
	assert.False(t, ok3)
	assert.Equal(t, truck.CommandAccelerate, first.Kind)
	assert.Equal(t, truck.CommandBrake, second.Kind)
}

func TestRouteQueue_TryPutFailsWhenFull(t *testing.T) {
	// Arrange
	q := truck.NewRouteQueue(1)
	route := []truck.Waypoint{{X: 1, Y: 2}}
	require.True(t, q.TryPut(route))

	// Act
	ok := q.TryPut([]truck.Waypoint{{X: 3, Y: 4}})

	// Assert
	assert.False(t, ok)
}

func TestRouteQueue_TryGetReturnsWaypoints(t *testing.T) {
	// Arrange
	q := truck.NewRouteQueue(2)
	route := []truck.Waypoint{{X: 1, Y: 2}, {X: 3, Y: 4}}
	q.TryPut(route)

	// Act
	got, ok := q.TryGet()

	// Assert
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[1].X)
}
