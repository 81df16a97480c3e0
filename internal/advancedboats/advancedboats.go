// Package advancedboats is the boundary to the external hydrodynamic model
// used for boat types whose speed and heel cannot be read directly off a
// polar response table (foiling multihulls, canting-keel ocean racers).
package advancedboats

import "errors"

// UpdateInput carries the apparent wind and current polar-derived speed
// estimates into the external model.
type UpdateInput struct {
	WindAngle      float64
	WindSpeed      float64
	BoatSpeedAhead float64
	BoatSpeedAbeam float64
	SailArea       float64
}

// UpdateOutput is the model's resolved velocity and heel.
type UpdateOutput struct {
	Ahead float64
	Abeam float64
	Heel  float64
}

// ErrUnsupported is returned by a Model when asked to update a boat type it
// does not carry coefficients for.
var ErrUnsupported = errors.New("advancedboats: unsupported boat type")

// Model is the external hydrodynamic solver. Implementations are expected to
// be pure functions of their input: no shared mutable state between calls.
type Model interface {
	Update(boatType int, in UpdateInput) (UpdateOutput, error)
}
