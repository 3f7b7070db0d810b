package models

// RGBA is a display color with red, green, blue and alpha channels in 0~255.
// It marshals to a JSON array, the form deck.gl color accessors expect.
type RGBA [4]uint8

// R returns the red channel
func (c RGBA) R() uint8 { return c[0] }

// G returns the green channel
func (c RGBA) G() uint8 { return c[1] }

// B returns the blue channel
func (c RGBA) B() uint8 { return c[2] }

// A returns the alpha channel
func (c RGBA) A() uint8 { return c[3] }
