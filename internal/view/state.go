package view

import (
	"errors"
	"fmt"
	"math"
)

// AllBrands is the filter sentinel that selects every point
const AllBrands = "全部"

// Transition errors
var (
	ErrInvalidViewState = errors.New("invalid view state")
	ErrUnknownBrand     = errors.New("unknown brand")
)

// ViewState is the shared camera pose
type ViewState struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Zoom      float64 `json:"zoom" yaml:"zoom"`
	Pitch     float64 `json:"pitch" yaml:"pitch"`
	Bearing   float64 `json:"bearing" yaml:"bearing"`
}

// DefaultViewState is the initial pose over Taipei
func DefaultViewState() ViewState {
	return ViewState{Latitude: 25.04, Longitude: 121.55, Zoom: 11, Pitch: 0, Bearing: 0}
}

// Validate checks the pose is one a map client can show
func (v ViewState) Validate() error {
	for _, f := range []float64{v.Latitude, v.Longitude, v.Zoom, v.Pitch, v.Bearing} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidViewState)
		}
	}
	switch {
	case math.Abs(v.Latitude) > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidViewState, v.Latitude)
	case math.Abs(v.Longitude) > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidViewState, v.Longitude)
	case v.Zoom < 0 || v.Zoom > 24:
		return fmt.Errorf("%w: zoom %v out of range", ErrInvalidViewState, v.Zoom)
	case v.Pitch < 0 || v.Pitch > 85:
		return fmt.Errorf("%w: pitch %v out of range", ErrInvalidViewState, v.Pitch)
	}
	return nil
}

// FilterState is the brand selection
type FilterState struct {
	Brand string `json:"brand"`
}

// All reports whether the filter selects every point
func (f FilterState) All() bool {
	return f.Brand == "" || f.Brand == AllBrands
}

// LayerVisibility holds the layer toggles
type LayerVisibility struct {
	Grid   bool `json:"grid"`
	Points bool `json:"points"`
}

// State is everything one session can change
type State struct {
	View   ViewState       `json:"view"`
	Filter FilterState     `json:"filter"`
	Layers LayerVisibility `json:"layers"`
}
