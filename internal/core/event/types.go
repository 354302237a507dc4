package event

import "github.com/apemallet/balls/internal/core/ecs"

// BallSpawned fires when a ball enters the world on the empty layer.
type BallSpawned struct {
	BallID ecs.EntityID
}

// BallAdmitted fires on the Entering → Active transition.
type BallAdmitted struct {
	BallID ecs.EntityID
}

// BallStuck fires when an entering ball never crossed the admission line
// before its catch timeout. The ball stays on the empty layer.
type BallStuck struct {
	BallID ecs.EntityID
}

// BallEjected fires when a ball reached the admission line while the wheel
// was already at capacity.
type BallEjected struct {
	BallID ecs.EntityID
}

// BallCulled fires when the sweep removes a ball that left the play area.
type BallCulled struct {
	BallID ecs.EntityID
	State  string
}

// WinnerRevealed fires when the roll winner is moved to the selected layer.
type WinnerRevealed struct {
	BallID ecs.EntityID
	Name   string
}

// RollFinished fires once per roll, with or without a winner.
type RollFinished struct {
	BallID ecs.EntityID
	Found  bool
}

// CrankBust fires once per bust.
type CrankBust struct{}
