package render

import (
	"testing"

	"github.com/ristryder/pgsplay/common"
	"github.com/stretchr/testify/assert"
)

func TestDisplayArea_MatchingAspectFillsContainer(t *testing.T) {
	area := DisplayArea(800, 450, common.Size{Height: 1080, Width: 1920})

	assert.Equal(t, common.Rect{Height: 450, Width: 800}, area)

	scaleX, scaleY := ScaleFactors(area, common.Size{Height: 1080, Width: 1920})
	assert.Equal(t, 800.0/1920, scaleX)
	assert.Equal(t, 800.0/1920, scaleY)
}

func TestDisplayArea_Letterbox(t *testing.T) {
	area := DisplayArea(800, 600, common.Size{Height: 1080, Width: 1920})

	assert.Equal(t, 0.0, area.X)
	assert.Equal(t, 75.0, area.Y)
	assert.Equal(t, 800.0, area.Width)
	assert.Equal(t, 450.0, area.Height)
}

func TestDisplayArea_Pillarbox(t *testing.T) {
	area := DisplayArea(1000, 300, common.Size{Height: 480, Width: 640})

	assert.Equal(t, 300.0, area.Height)
	assert.Equal(t, 400.0, area.Width)
	assert.Equal(t, 300.0, area.X)
	assert.Equal(t, 0.0, area.Y)
}

func TestDisplayArea_Degenerate(t *testing.T) {
	assert.Equal(t, common.Rect{Height: 300, Width: 400}, DisplayArea(400, 300, common.Size{}),
		"unknown video size uses the whole container")
	assert.True(t, DisplayArea(0, 300, common.Size{Height: 1080, Width: 1920}).Empty())
	assert.True(t, DisplayArea(400, 0, common.Size{Height: 1080, Width: 1920}).Empty())

	scaleX, scaleY := ScaleFactors(common.Rect{Height: 100, Width: 100}, common.Size{})
	assert.Zero(t, scaleX)
	assert.Zero(t, scaleY)
}

func TestSurfaceSize(t *testing.T) {
	assert.Equal(t, common.Size{Height: 1080, Width: 1920}, SurfaceSize(common.Rect{Height: 540, Width: 960}, 2))
	assert.Equal(t, common.Size{Height: 338, Width: 600}, SurfaceSize(common.Rect{Height: 225, Width: 400}, 1.5))
	assert.True(t, SurfaceSize(common.Rect{}, 2).Empty())
}

func TestIsScaled(t *testing.T) {
	assert.False(t, isScaled(1, 1))
	assert.False(t, isScaled(1.005, 0.995))
	assert.True(t, isScaled(1.02, 1))
	assert.True(t, isScaled(1, 0.5))
}
