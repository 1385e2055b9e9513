package geo

import "context"

// Result is a resolved address.
type Result struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64
}

// Geocoder resolves a freeform address to coordinates. It is a consumed
// collaborator; implementations live outside this engine.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Result, error)
}

// Func adapts a plain function to the Geocoder interface.
type Func func(ctx context.Context, address string) (Result, error)

func (f Func) Geocode(ctx context.Context, address string) (Result, error) {
	return f(ctx, address)
}
