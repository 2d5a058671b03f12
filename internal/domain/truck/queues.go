package truck

import "sync"

// Waypoint is a single (x, y) target in a route.
type Waypoint struct {
	X float64
	Y float64
}

// CommandQueue is a bounded, non-blocking FIFO of operator/remote commands.
// A full queue drops the incoming command rather than blocking the producer;
// this mirrors queue.Queue(maxsize=...) used with put_nowait in the original
// command dispatch path.
type CommandQueue struct {
	mu       sync.Mutex
	items    []Command
	capacity int
}

// NewCommandQueue creates a queue that holds at most capacity commands.
func NewCommandQueue(capacity int) *CommandQueue {
	if capacity <= 0 {
		capacity = 50
	}
	return &CommandQueue{capacity: capacity}
}

// TryPut appends a command, returning false if the queue is full.
func (q *CommandQueue) TryPut(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, cmd)
	return true
}

// TryGet pops the oldest command, returning false if the queue is empty.
func (q *CommandQueue) TryGet() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Command{}, false
	}
	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd, true
}

// DrainAll pops every currently queued command, oldest first.
func (q *CommandQueue) DrainAll() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len reports the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// RouteQueue is a bounded, non-blocking FIFO of routes (each a list of
// waypoints) awaiting pickup by the route planner task.
type RouteQueue struct {
	mu       sync.Mutex
	items    [][]Waypoint
	capacity int
}

// NewRouteQueue creates a queue that holds at most capacity routes.
func NewRouteQueue(capacity int) *RouteQueue {
	if capacity <= 0 {
		capacity = 10
	}
	return &RouteQueue{capacity: capacity}
}

// TryPut appends a route, returning false if the queue is full.
func (q *RouteQueue) TryPut(route []Waypoint) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, route)
	return true
}

// TryGet pops the oldest route, returning false if the queue is empty.
func (q *RouteQueue) TryGet() ([]Waypoint, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	route := q.items[0]
	q.items = q.items[1:]
	return route, true
}

// Len reports the number of queued routes.
func (q *RouteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
