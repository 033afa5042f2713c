package hud

import "github.com/Carmen-Shannon/hud-go/hud/text"

// config carries the tunables applied by Build options.
type config struct {
	glyphBudget  uint64
	animationFPS float64
	workers      int
}

func defaultConfig() config {
	return config{
		glyphBudget:  text.DefaultBudget,
		animationFPS: 10,
		workers:      0,
	}
}

// Option configures a Build call.
type Option func(*config)

// WithGlyphAtlasBudget sets the glyph atlas texel budget. The atlas is
// carved into square array layers up front and never grows, so the budget
// bounds how many distinct (font, size, rune) combinations can be cached
// over the hud's lifetime. Defaults to 8192x8192 texels.
//
// Parameters:
//   - texels: the total texel budget across all glyph atlas layers
//
// Returns:
//   - Option: a function that sets the glyph atlas budget
func WithGlyphAtlasBudget(texels uint64) Option {
	return func(c *config) {
		c.glyphBudget = texels
	}
}

// WithAnimationFPS sets the rate at which the global animation frame
// counter advances. All animated sprites share the counter; a sprite with
// fewer frames wraps via modulo. Zero freezes animation. Defaults to 10.
//
// Parameters:
//   - fps: animation frames per second
//
// Returns:
//   - Option: a function that sets the animation rate
func WithAnimationFPS(fps float64) Option {
	return func(c *config) {
		c.animationFPS = fps
	}
}

// WithWorkers sets the size of the worker pool used to blit sprite frames
// into atlas layers during Build. Values below 1 select one fewer than the
// machine's logical CPUs, minimum 1.
//
// Parameters:
//   - n: the number of blit workers
//
// Returns:
//   - Option: a function that sets the worker count
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}
