package radar

import (
	"math"

	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
)

// Frame places the dial in a grid of terminal cells.
type Frame struct {
	Width, Height    int
	CenterX, CenterY int
	Radius           float64 // in columns
}

// NewFrame fits the largest dial into width x height cells.
func NewFrame(width, height int) Frame {
	cx, cy := width/2, height/2
	radius := math.Min(float64(cx-1), float64(cy-1)/config.AspectRatio)
	if radius < 3 {
		radius = 3
	}
	return Frame{Width: width, Height: height, CenterX: cx, CenterY: cy, Radius: radius}
}

// Locate returns the drawing-convention angle of a cell and its distance
// from the center as a fraction of the radius.
func (f Frame) Locate(col, row int) (angle, radiusFraction float64) {
	return CellDegrees(col, row, f.CenterX, f.CenterY),
		CellDistance(col, row, f.CenterX, f.CenterY) / f.Radius
}

// Limit is the outermost radius fraction that is drawn. Cells whose
// centers sit just past the rim still carry the band so the ring has no
// holes.
func (f Frame) Limit() float64 {
	return 1 + 0.5/f.Radius
}

// DialFraction maps a cell's radius fraction onto the dial's [0, 1]
// range. Cells past Limit are not part of the drawing.
func (f Frame) DialFraction(radiusFraction float64) (float64, bool) {
	if !(radiusFraction >= 0 && radiusFraction <= f.Limit()) {
		return 0, false
	}
	return math.Min(radiusFraction, 1), true
}

// Cell returns the cell nearest to the point at angle (degrees, drawing
// convention) and radius fraction.
func (f Frame) Cell(angle, radiusFraction float64) (col, row int) {
	rad := angle * math.Pi / 180
	r := radiusFraction * f.Radius
	col = f.CenterX + int(math.Round(r*math.Cos(rad)))
	row = f.CenterY + int(math.Round(r*math.Sin(rad)*config.AspectRatio))
	return col, row
}

// CellDistance computes the distance from a cell to the center,
// accounting for terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle computes the angle from center to a cell.
// Returns radians in [0, 2π), where 0=north, increasing clockwise.
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return NormalizeAngle(math.Atan2(dx, -dy))
}

// CellDegrees is CellAngle in the dial's convention: degrees, 0 at east,
// increasing clockwise.
func CellDegrees(col, row, centerX, centerY int) float64 {
	return dial.NormalizeDegrees(CellAngle(col, row, centerX, centerY)*180/math.Pi + dial.ReferenceAngle)
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
