package termview

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/james-see/fretpad/pkg/notepad"
)

// Apply runs a color through f the way CSS filter functions do: brightness,
// then contrast, then saturate, clamping after each step.
func Apply(f notepad.Filter, c colorful.Color) colorful.Color {
	if f.IsIdentity() {
		return c
	}
	r, g, b := c.R*f.Brightness, c.G*f.Brightness, c.B*f.Brightness
	r, g, b = clamp(r), clamp(g), clamp(b)

	contrast := func(v float64) float64 { return clamp((v-0.5)*f.Contrast + 0.5) }
	r, g, b = contrast(r), contrast(g), contrast(b)

	s := f.Saturate
	nr := (0.213+0.787*s)*r + (0.715-0.715*s)*g + (0.072-0.072*s)*b
	ng := (0.213-0.213*s)*r + (0.715+0.285*s)*g + (0.072-0.072*s)*b
	nb := (0.213-0.213*s)*r + (0.715-0.715*s)*g + (0.072+0.928*s)*b
	return colorful.Color{R: clamp(nr), G: clamp(ng), B: clamp(nb)}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
