// Package advfixture is a simple analytic stand-in for the external
// hydrodynamic model SPEC_FULL.md declares out of scope for this
// repository: given apparent wind and sail area, estimate forward/abeam
// boat speed and heeling angle for the advanced (foiling/canting-keel)
// boat types. Production deployments are expected to swap this for the
// real model behind the same advancedboats.Model interface.
package advfixture

import (
	"math"

	"github.com/banshee-data/sailnavsim/internal/advancedboats"
	"github.com/banshee-data/sailnavsim/internal/windresponse"
)

// Model is a deterministic analytic approximation: a cosine polar times a
// sail-area scalar for forward speed, a sine term for leeway, and a load
// proportional to both for heel, clamped to a plausible range.
type Model struct{}

// New constructs a fixture Model.
func New() *Model { return &Model{} }

// Update implements advancedboats.Model. It returns an error for boat types
// the windresponse table doesn't mark advanced, matching the real model's
// "unsupported boat type" contract.
func (Model) Update(boatType int, in advancedboats.UpdateInput) (advancedboats.UpdateOutput, error) {
	if !windresponse.IsAdvanced(windresponse.Type(boatType)) {
		return advancedboats.UpdateOutput{}, advancedboats.ErrUnsupported
	}

	sailFrac := in.SailArea / 100.0
	angleR := in.WindAngle * math.Pi / 180.0

	forward := in.WindSpeed * sailFrac * 1.4 * math.Abs(math.Cos(angleR))
	abeam := in.WindSpeed * sailFrac * 0.3 * math.Sin(angleR)
	heel := 30.0 * sailFrac * math.Abs(math.Sin(angleR)) * (1.0 + in.WindSpeed/20.0)
	if heel > 45.0 {
		heel = 45.0
	}

	return advancedboats.UpdateOutput{Ahead: forward, Abeam: abeam, Heel: heel}, nil
}
