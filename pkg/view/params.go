package view

// Key names a keyboard key as reported by the host, e.g. "X"
type Key string

// Button identifies a pointer button
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Window holds the linear contrast mapping applied by the renderer: samples
// in [Level-Width/2, Level+Width/2] map onto the display range.
type Window struct {
	Width float32
	Level float32
}

// Params holds the interaction settings of a view
type Params struct {
	// ViewportWidth and ViewportHeight are the initial framebuffer size in pixels
	ViewportWidth  int
	ViewportHeight int

	// ImageWindow and MaskWindow are applied the first time a volume is
	// loaded into an empty slab
	ImageWindow Window
	MaskWindow  Window

	// DragSensitivity is the windowing change per pixel of right-button drag
	DragSensitivity float32

	// ZoomStep divides the wheel delta: scale = 1 + dy/ZoomStep
	ZoomStep float32

	CycleAxisKey Key
	ResetViewKey Key
}

// DefaultParams returns the stock interaction settings
func DefaultParams() Params {
	return Params{
		ViewportWidth:   800,
		ViewportHeight:  600,
		ImageWindow:     Window{Width: 600, Level: 200},
		MaskWindow:      Window{Width: 1.0, Level: 0.5},
		DragSensitivity: 2.0,
		ZoomStep:        10,
		CycleAxisKey:    "X",
		ResetViewKey:    "R",
	}
}
