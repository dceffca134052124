package view

import (
	"path/filepath"
	"strings"

	"volview/pkg/logging"
)

// View is the input and drawing surface shared by the planar and volumetric
// variants. None of the entry points fail; irrelevant input is ignored.
type View interface {
	OnKeyRelease(key Key)
	OnModifierChange(shift bool)
	OnButton(button Button, pressed bool)
	OnPointerMove(x, y float64)
	OnWheel(dy float64, isLine bool)
	OnResize(width, height int)
	OnLoad(path string)
	Draw(r Renderer)
	Close()
}

// Variant selects which view receives input
type Variant int

const (
	Volumetric Variant = iota
	Planar
)

func (v Variant) String() string {
	if v == Planar {
		return "2D"
	}
	return "3D"
}

// VariantFor picks the view for a file by extension: pictures go to the
// planar view, everything else to the volumetric one
func VariantFor(path string) Variant {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return Planar
	}
	return Volumetric
}

// Dispatcher routes host events to the active view variant
type Dispatcher struct {
	views  [2]View
	active Variant
}

// NewDispatcher starts with the volumetric view active
func NewDispatcher(volume, planar View) *Dispatcher {
	return &Dispatcher{views: [2]View{Volumetric: volume, Planar: planar}}
}

// Active returns the variant receiving input
func (d *Dispatcher) Active() Variant { return d.active }

// ActiveView returns the view receiving input
func (d *Dispatcher) ActiveView() View { return d.views[d.active] }

// SetActive switches the view receiving input
func (d *Dispatcher) SetActive(v Variant) {
	if v != d.active {
		logging.Infof("Set current view to %v", v)
	}
	d.active = v
}

// OnLoad activates the variant matching path and loads it there
func (d *Dispatcher) OnLoad(path string) {
	logging.Infof("Opening %s", path)
	d.SetActive(VariantFor(path))
	d.ActiveView().OnLoad(path)
}

func (d *Dispatcher) OnKeyRelease(key Key)                 { d.ActiveView().OnKeyRelease(key) }
func (d *Dispatcher) OnButton(button Button, pressed bool) { d.ActiveView().OnButton(button, pressed) }
func (d *Dispatcher) OnPointerMove(x, y float64)           { d.ActiveView().OnPointerMove(x, y) }
func (d *Dispatcher) OnWheel(dy float64, isLine bool)      { d.ActiveView().OnWheel(dy, isLine) }
func (d *Dispatcher) Draw(r Renderer)                      { d.ActiveView().Draw(r) }

// OnModifierChange and OnResize reach every variant so an inactive view is
// current when it becomes active
func (d *Dispatcher) OnModifierChange(shift bool) {
	for _, v := range d.views {
		v.OnModifierChange(shift)
	}
}

func (d *Dispatcher) OnResize(width, height int) {
	for _, v := range d.views {
		v.OnResize(width, height)
	}
}

// Close releases every variant's textures
func (d *Dispatcher) Close() {
	for _, v := range d.views {
		v.Close()
	}
}

var (
	_ View = (*VolumeView)(nil)
	_ View = (*PlanarView)(nil)
	_ View = (*Dispatcher)(nil)
)
