package picker

import "math"

// Layout defaults.
const (
	DefaultWidthRatio   = 0.9
	DefaultWidthMin     = 80
	DefaultWidthMax     = 800
	DefaultHeightRatio  = 0.9
	DefaultHeightMin    = 5
	DefaultHeightMax    = 300
	DefaultPreviewRatio = 0.65
	DefaultBorder       = "rounded"
)

// Border styles understood by the terminal UI.
var BorderStyles = []string{"none", "ascii", "single", "double", "rounded"}

// LayoutParams sizes the picker panels relative to the screen.
//
//	╭──────────────────────╮╭─────────────╮
//	│        Query         ││             │
//	│──────────────────────││             │
//	│                      ││   Preview   │
//	│       Selector       ││             │
//	╰──────────────────────╯╰─────────────╯
type LayoutParams struct {
	Title string

	Width       int // Fixed width; 0 derives it from WidthRatio
	WidthRatio  float64
	WidthMin    int
	WidthMax    int
	Height      int // Fixed height; 0 derives it from HeightRatio
	HeightRatio float64
	HeightMin   int
	HeightMax   int

	PreviewRatio float64 // Share of the width given to the preview panel
	Border       string
}

// DefaultLayout returns the default layout.
func DefaultLayout() LayoutParams {
	return LayoutParams{
		WidthRatio:   DefaultWidthRatio,
		WidthMin:     DefaultWidthMin,
		WidthMax:     DefaultWidthMax,
		HeightRatio:  DefaultHeightRatio,
		HeightMin:    DefaultHeightMin,
		HeightMax:    DefaultHeightMax,
		PreviewRatio: DefaultPreviewRatio,
		Border:       DefaultBorder,
	}
}

// withDefaults fills zero fields with the defaults.
func (l LayoutParams) withDefaults() LayoutParams {
	d := DefaultLayout()
	if l.WidthRatio <= 0 {
		l.WidthRatio = d.WidthRatio
	}
	if l.WidthMin <= 0 {
		l.WidthMin = d.WidthMin
	}
	if l.WidthMax <= 0 {
		l.WidthMax = d.WidthMax
	}
	if l.HeightRatio <= 0 {
		l.HeightRatio = d.HeightRatio
	}
	if l.HeightMin <= 0 {
		l.HeightMin = d.HeightMin
	}
	if l.HeightMax <= 0 {
		l.HeightMax = d.HeightMax
	}
	if l.PreviewRatio < 0 {
		l.PreviewRatio = 0
	}
	if l.Border == "" {
		l.Border = d.Border
	}
	return l
}

// CalcProperSize scales base by ratio and clamps the result into [min, max].
func CalcProperSize(base int, ratio float64, min, max int) int {
	v := int(math.Floor(float64(base) * ratio))
	return clampInt(v, min, max)
}

// Geometry is the computed placement of the picker panels in cells.
// Sizes include borders.
type Geometry struct {
	X, Y          int
	Width, Height int
	MainWidth     int // Query and selector column
	PreviewWidth  int // 0 when the preview panel is hidden
}

// Compute places the picker on a screen of the given size. The picker never
// exceeds the screen, even when the minimums are larger.
func (l LayoutParams) Compute(screenWidth, screenHeight int) Geometry {
	l = l.withDefaults()

	width := l.Width
	if width <= 0 {
		width = CalcProperSize(screenWidth, l.WidthRatio, l.WidthMin, l.WidthMax)
	}
	height := l.Height
	if height <= 0 {
		height = CalcProperSize(screenHeight, l.HeightRatio, l.HeightMin, l.HeightMax)
	}
	width = min(width, screenWidth)
	height = min(height, screenHeight)

	preview := 0
	if l.PreviewRatio > 0 {
		preview = CalcProperSize(width, l.PreviewRatio,
			int(float64(l.WidthMin)*l.PreviewRatio),
			int(float64(l.WidthMax)*l.PreviewRatio))
		preview = min(preview, width)
	}

	return Geometry{
		X:            max(0, (screenWidth-width)/2),
		Y:            max(0, (screenHeight-height)/2),
		Width:        width,
		Height:       height,
		MainWidth:    width - preview,
		PreviewWidth: preview,
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
