package picker

import (
	"testing"

	"github.com/Carmen-Shannon/hud-go/hud/area"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPicker() *Picker {
	return &Picker{results: make(chan uint32, 8)}
}

func TestDrainKeepsNewestResult(t *testing.T) {
	p := newTestPicker()
	p.deliver(3)
	p.deliver(7)
	p.deliver(2)

	p.Drain()
	h, ok := p.Hovered()
	require.True(t, ok)
	assert.Equal(t, area.Handle(2), h)
}

func TestDrainWithoutResultsKeepsLastHover(t *testing.T) {
	p := newTestPicker()
	p.deliver(5)
	p.Drain()

	p.Drain()
	h, ok := p.Hovered()
	require.True(t, ok)
	assert.Equal(t, area.Handle(5), h)
}

func TestZeroMeansNothingHovered(t *testing.T) {
	p := newTestPicker()
	_, ok := p.Hovered()
	assert.False(t, ok, "no readback yet")

	p.deliver(9)
	p.Drain()
	_, ok = p.Hovered()
	require.True(t, ok)

	p.deliver(0)
	p.Drain()
	_, ok = p.Hovered()
	assert.False(t, ok, "cursor moved off every area")
}

func TestDeliverNeverBlocks(t *testing.T) {
	p := newTestPicker()
	for i := uint32(1); i <= 20; i++ {
		p.deliver(i)
	}

	// Only the first 8 fit; the rest were dropped rather than blocking
	// the driver thread.
	p.Drain()
	h, ok := p.Hovered()
	require.True(t, ok)
	assert.Equal(t, area.Handle(8), h)
}

func TestSetCursorMarksMovement(t *testing.T) {
	p := newTestPicker()
	assert.False(t, p.cursorMoved)

	p.SetCursor(120, 45)
	assert.True(t, p.cursorMoved)
	assert.Equal(t, uint32(120), p.cursorX)
	assert.Equal(t, uint32(45), p.cursorY)
}
