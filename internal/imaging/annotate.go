package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/mj1618/device-bridge/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelMode controls what text is drawn on each annotated element.
type LabelMode int

const (
	// LabelIDs draws "[id]" element IDs.
	LabelIDs LabelMode = iota
	// LabelCoords draws "(x,y)" screen center coordinates.
	LabelCoords
)

// ParseLabelMode maps "ids" or "coords" to a LabelMode.
func ParseLabelMode(s string) (LabelMode, error) {
	switch s {
	case "", "ids":
		return LabelIDs, nil
	case "coords":
		return LabelCoords, nil
	}
	return LabelIDs, fmt.Errorf("unknown label mode %q (use ids or coords)", s)
}

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotate draws element bounding boxes ([x, y, w, h]) and labels onto a copy of img.
// screen is the device size in pixels; element bounds are mapped onto the
// image by the ratio of image size to screen size, so scaled frames line up.
func Annotate(img image.Image, elements []model.UiElement, screen image.Point, mode LabelMode) *image.RGBA {
	rgba := ToRGBA(img)
	b := img.Bounds()

	scaleX, scaleY := 1.0, 1.0
	if screen.X > 0 {
		scaleX = float64(b.Dx()) / float64(screen.X)
	}
	if screen.Y > 0 {
		scaleY = float64(b.Dy()) / float64(screen.Y)
	}

	for _, el := range elements {
		x1 := b.Min.X + int(float64(el.Bounds[0])*scaleX)
		y1 := b.Min.Y + int(float64(el.Bounds[1])*scaleY)
		x2 := b.Min.X + int(float64(el.Bounds[0]+el.Bounds[2])*scaleX)
		y2 := b.Min.Y + int(float64(el.Bounds[1]+el.Bounds[3])*scaleY)
		drawRectangle(rgba, x1, y1, x2, y2, boxColor)

		var label string
		switch mode {
		case LabelCoords:
			cx, cy := el.Center()
			label = fmt.Sprintf("(%d,%d)", cx, cy)
		default:
			label = fmt.Sprintf("[%d]", el.ID)
		}
		drawTextWithOutline(rgba, label, (x1+x2)/2, (y1+y2)/2)
	}
	return rgba
}

// ToRGBA converts any image to RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline centers text on (x, y). Face7x13 glyphs are 7px wide.
func drawTextWithOutline(img *image.RGBA, text string, x, y int) {
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	d.Src = image.NewUniform(outlineColor)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(offsetX+dx, offsetY+dy)
			d.DrawString(text)
		}
	}
	d.Src = image.NewUniform(textColor)
	d.Dot = fixed.P(offsetX, offsetY)
	d.DrawString(text)
}
