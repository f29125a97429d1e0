package testutils

// Position is a plain 2D position used across the ecs and scene tests.
type Position struct {
	X, Y float32
}

func (Position) Name() string { return "position" }

// Velocity is a plain 2D velocity.
type Velocity struct {
	X, Y float32
}

func (Velocity) Name() string { return "velocity" }

// Health carries a pair of ints so pool moves can be checked field by field.
type Health struct {
	Current, Max int
}

func (Health) Name() string { return "health" }

// Marker is a zero-sized tag component.
type Marker struct{}

func (Marker) Name() string { return "marker" }

// Unnamed returns an empty name, which the registry must reject.
type Unnamed struct{}

func (Unnamed) Name() string { return "" }
