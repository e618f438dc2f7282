package dial

import "math"

// Angles are in degrees using the drawing convention: 0 points east,
// angles increase clockwise (screen y grows downward).
const (
	// ReferenceAngle is the direction of slot 0's leading edge: the top
	// of the ring.
	ReferenceAngle = -90.0

	fullCircle = 360.0
)

// Divisions returns the total number of ring positions for a usable
// capacity: ceil(capacity * 1.09), computed without floating point.
func Divisions(capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return (capacity*109 + 99) / 100
}

// SliceAngle returns the angular width of one slot.
func SliceAngle(divisions int) float64 {
	return fullCircle / float64(divisions)
}

// RotationOffset returns the rotation that keeps the excluded block
// centered at the bottom of the ring. Rotation is needed exactly when the
// parities of divisions and excluded differ.
func RotationOffset(divisions, excluded int) float64 {
	if divisions <= 0 {
		return 0
	}
	half := SliceAngle(divisions) / 2
	switch {
	case divisions%2 == 0 && excluded%2 == 1:
		return -half
	case divisions%2 == 1 && excluded%2 == 0:
		return half
	default:
		return 0
	}
}

// StartAngle returns the leading edge of slot i.
func StartAngle(i, divisions int, rotation float64) float64 {
	return ReferenceAngle + float64(i)*SliceAngle(divisions) + rotation
}

// MidpointAngle returns the angular center of slot i.
func MidpointAngle(i, divisions int, rotation float64) float64 {
	return StartAngle(i, divisions, rotation) + SliceAngle(divisions)/2
}

// AngleToSlot is the inverse of StartAngle: it returns the slot whose
// span contains angle.
func AngleToSlot(angle float64, divisions int, rotation float64) int {
	if divisions <= 0 {
		return 0
	}
	rel := NormalizeDegrees(angle - ReferenceAngle - rotation)
	idx := int(math.Floor(rel / SliceAngle(divisions)))
	return ((idx % divisions) + divisions) % divisions
}

// NormalizeDegrees wraps a to [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, fullCircle)
	if a < 0 {
		a += fullCircle
	}
	if a >= fullCircle {
		a = 0
	}
	return a
}
