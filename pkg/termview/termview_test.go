package termview

import (
	"math"
	"strings"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/james-see/fretpad/pkg/notepad"
)

func TestExtent(t *testing.T) {
	tests := []struct {
		in    string
		total int
		want  int
	}{
		{"", 6, 6},
		{"100%", 6, 6},
		{"50%", 6, 3},
		{"33%", 3, 1},
		{"0%", 6, 0},
		{"150%", 6, 6},
		{"2", 6, 2},
		{"2.6", 6, 3},
		{"10", 6, 6},
		{"-1", 6, 0},
		{"4em", 6, 6},
		{"auto", 6, 6},
		{"NaN%", 6, 6},
		{"NaN", 6, 6},
		{"Inf%", 6, 6},
		{"-Inf", 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Extent(tt.in, tt.total); got != tt.want {
				t.Errorf("Extent(%q, %d) = %d, want %d", tt.in, tt.total, got, tt.want)
			}
		})
	}
}

func TestLayoutCentersFillAndLabel(t *testing.T) {
	v := notepad.Render(notepad.Config{FillWidth: "2", FillHeight: "1", Label: "E4"}, false)
	g := Layout(v, 6, 3)

	if got := g.String(); got != "      \n  E4  \n      " {
		t.Errorf("text =\n%q", got)
	}
	for y, row := range g {
		for x, c := range row {
			wantFill := y == 1 && (x == 2 || x == 3)
			if c.Fill != wantFill {
				t.Errorf("cell %d,%d Fill = %v, want %v", x, y, c.Fill, wantFill)
			}
			if c.Label != wantFill {
				t.Errorf("cell %d,%d Label = %v", x, y, c.Label)
			}
		}
	}
}

func TestLayoutTruncatesLabel(t *testing.T) {
	v := notepad.Render(notepad.Config{Label: "C#-1 long"}, false)
	g := Layout(v, 4, 1)
	if got := g.String(); got != "C#-1" {
		t.Errorf("text = %q, want %q", got, "C#-1")
	}
}

func TestLayoutZeroSize(t *testing.T) {
	v := notepad.Render(notepad.Config{Label: "A"}, true)
	if g := Layout(v, 0, 0); len(g) != 0 {
		t.Errorf("Layout(0,0) has %d rows", len(g))
	}
	if got := Render(v, 0, 0); got != "" {
		t.Errorf("Render(0,0) = %q", got)
	}
}

func TestRenderKeepsBlockShape(t *testing.T) {
	for _, active := range []bool{false, true} {
		v := notepad.Render(notepad.Config{FillColor: "#5D9BE0", FillWidth: "50%", Label: "G3"}, active)
		out := Render(v, 8, 3)
		lines := strings.Split(out, "\n")
		if len(lines) != 3 {
			t.Fatalf("active=%v: %d lines, want 3", active, len(lines))
		}
		if !strings.Contains(lines[1], "G3") {
			t.Errorf("active=%v: label missing from middle row %q", active, lines[1])
		}
	}
}

func TestApplyIdentity(t *testing.T) {
	c := colorful.Color{R: 0.3, G: 0.6, B: 0.9}
	if got := Apply(notepad.IdentityFilter, c); got != c {
		t.Errorf("identity filter changed %v to %v", c, got)
	}
}

func TestApplyActiveFilter(t *testing.T) {
	tests := []struct {
		name string
		in   colorful.Color
		want colorful.Color
	}{
		// gray: brightness 0.5*1.2=0.6, contrast (0.6-0.5)*1.2+0.5=0.62, saturate keeps grays
		{"gray", colorful.Color{R: 0.5, G: 0.5, B: 0.5}, colorful.Color{R: 0.62, G: 0.62, B: 0.62}},
		{"black", colorful.Color{}, colorful.Color{}},
		{"white", colorful.Color{R: 1, G: 1, B: 1}, colorful.Color{R: 1, G: 1, B: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(notepad.ActiveFilter, tt.in)
			if !near(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyIncreasesSaturationAndBrightness(t *testing.T) {
	in, _ := colorful.Hex("#5D9BE0")
	out := Apply(notepad.ActiveFilter, in)

	_, sIn, vIn := in.Hsv()
	_, sOut, vOut := out.Hsv()
	if sOut <= sIn {
		t.Errorf("saturation %v -> %v, want increase", sIn, sOut)
	}
	if vOut <= vIn {
		t.Errorf("value %v -> %v, want increase", vIn, vOut)
	}
	if !out.IsValid() {
		t.Errorf("filtered color out of gamut: %v", out)
	}
}

func TestFillColor(t *testing.T) {
	if _, ok := FillColor(notepad.Fill{Color: "205"}); ok {
		t.Error("ANSI index parsed as hex")
	}
	if _, ok := FillColor(notepad.Fill{}); ok {
		t.Error("empty color parsed")
	}
	c, ok := FillColor(notepad.Fill{Color: "#fff", Filter: notepad.IdentityFilter})
	if !ok || c.Hex() != "#ffffff" {
		t.Errorf("FillColor(#fff) = %v, %v", c.Hex(), ok)
	}
}

func near(a, b colorful.Color) bool {
	const eps = 1e-9
	return math.Abs(a.R-b.R) < eps && math.Abs(a.G-b.G) < eps && math.Abs(a.B-b.B) < eps
}
