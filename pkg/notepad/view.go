package notepad

import "slices"

// Filter is a brightness/contrast/saturation adjustment. 1 leaves a
// component unchanged.
type Filter struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturate   float64 `json:"saturate"`
}

var (
	// IdentityFilter leaves colors untouched.
	IdentityFilter = Filter{Brightness: 1, Contrast: 1, Saturate: 1}
	// ActiveFilter intensifies the fill and label of a sounding pad.
	ActiveFilter = Filter{Brightness: 1.2, Contrast: 1.2, Saturate: 1.2}
)

// IsIdentity reports whether f leaves colors untouched
func (f Filter) IsIdentity() bool {
	return f == IdentityFilter
}

// Surface is the full-size region that receives pointer input.
type Surface struct {
	Part            string `json:"part"`
	CapturesPointer bool   `json:"capturesPointer"`
	Selectable      bool   `json:"selectable"`
}

// Fill is the colored region. Color, Width and Height are passed through
// from the configuration for the renderer to interpret.
type Fill struct {
	Part    string   `json:"part"`
	Classes []string `json:"classes"`
	Color   string   `json:"color"`
	Width   string   `json:"width"`
	Height  string   `json:"height"`
	Filter  Filter   `json:"filter"`
}

// Label is the centered text region.
type Label struct {
	Part    string   `json:"part"`
	Classes []string `json:"classes"`
	Text    string   `json:"text"`
	Filter  Filter   `json:"filter"`
}

// View is the layered visual tree of a pad, bottom to top.
type View struct {
	Surface  Surface `json:"surface"`
	Fill     Fill    `json:"fill"`
	Label    Label   `json:"label"`
	Active   bool    `json:"active"`
	Revision int     `json:"revision"`
}

// Render derives a view from a configuration and sounding state. It is a
// pure function; Pad.View caches its result.
func Render(cfg Config, sounding bool) View {
	filter := IdentityFilter
	fillClasses := []string{"color"}
	labelClasses := []string{"label"}
	if sounding {
		filter = ActiveFilter
		fillClasses = append(fillClasses, "active")
		labelClasses = append(labelClasses, "active")
	}
	return View{
		Surface: Surface{Part: "area", CapturesPointer: true},
		Fill: Fill{
			Part:    "color",
			Classes: fillClasses,
			Color:   cfg.FillColor,
			Width:   cfg.FillWidth,
			Height:  cfg.FillHeight,
			Filter:  filter,
		},
		Label: Label{
			Part:    "label",
			Classes: labelClasses,
			Text:    cfg.Label,
			Filter:  filter,
		},
		Active: sounding,
	}
}

// View returns the pad's current visual tree, rendering it first if the
// configuration or state changed since the last call.
func (p *Pad) View() View {
	if p.dirty {
		p.revision++
		p.view = Render(p.cfg, p.sounding)
		p.view.Revision = p.revision
		p.dirty = false
	}
	v := p.view
	v.Fill.Classes = slices.Clone(v.Fill.Classes)
	v.Label.Classes = slices.Clone(v.Label.Classes)
	return v
}

// Dirty reports whether the next View call will re-render
func (p *Pad) Dirty() bool {
	return p.dirty
}
