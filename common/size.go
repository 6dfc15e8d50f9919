package common

import "fmt"

type Size struct {
	Height int
	Width  int
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is a floating point rectangle in viewport (CSS) pixels.
type Rect struct {
	Height float64
	Width  float64
	X      float64
	Y      float64
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
