package radar

import (
	"fmt"
	"strings"
	"time"

	"ble-dial.klederson.com/internal/config"
	"ble-dial.klederson.com/internal/dial"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorBright = lipgloss.Color("#00FF41")
	colorMid    = lipgloss.Color("#008F11")
	colorDim    = lipgloss.Color("#004A0A")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleEmpty    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	styleExcluded = lipgloss.NewStyle().Foreground(lipgloss.Color("#1C1C1C"))
	styleGear     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel    = lipgloss.NewStyle().Foreground(colorMid)
	styleLegend   = lipgloss.NewStyle().Foreground(colorMid)
)

const (
	glyphBody     = "█"
	glyphRim      = "▓"
	glyphEmpty    = "·"
	glyphExcluded = "░"
	glyphGear     = "⚙"
)

// View is everything Render needs from the app.
type View struct {
	Snapshot     *dial.Snapshot
	Sweep        *Sweep
	Now          time.Time
	StaleTimeout time.Duration
	Selected     string // highlighted device id
}

// Render draws the dial into the frame as a styled string.
func Render(f Frame, v View) string {
	if f.Width < 10 || f.Height < 5 || v.Snapshot == nil {
		return ""
	}
	ring := v.Snapshot.Ring()
	if ring.Divisions() == 0 {
		return ""
	}

	gearCol, gearRow, hasGear := gearCell(f, ring)
	label := fmt.Sprintf("%d/%d", v.Snapshot.Len(), ring.Capacity())
	labelRow := f.CenterY + 1
	labelCol := f.CenterX - len(label)/2
	limit := f.Limit()

	var sb strings.Builder
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			angle, frac := f.Locate(col, row)
			switch {
			case frac > limit:
				sb.WriteByte(' ')
			case hasGear && col == gearCol && row == gearRow:
				sb.WriteString(styleGear.Render(glyphGear))
			case frac >= config.InnerRadiusFraction:
				sb.WriteString(renderBand(ring, v, angle, frac))
			case row == labelRow && col >= labelCol && col < labelCol+len(label):
				sb.WriteString(styleLabel.Render(string(label[col-labelCol])))
			case col == f.CenterX && row == f.CenterY:
				sb.WriteString(styleCenter.Render("+"))
			default:
				sb.WriteString(renderInterior(v.Sweep, CellAngle(col, row, f.CenterX, f.CenterY)))
			}
		}
		if row < f.Height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// gearCell is where the settings glyph sits: the middle of the excluded
// block, halfway through the band.
func gearCell(f Frame, ring dial.Ring) (col, row int, ok bool) {
	ex := ring.Excluded()
	if len(ex) == 0 {
		return 0, 0, false
	}
	mid := ring.StartAngle(ex[0]) + float64(len(ex))*ring.SliceAngle()/2
	col, row = f.Cell(mid, (config.InnerRadiusFraction+1)/2)
	return col, row, true
}

func renderBand(ring dial.Ring, v View, angle, frac float64) string {
	slot := ring.SlotAt(angle)
	within := dial.NormalizeDegrees(angle-ring.StartAngle(slot)) / ring.SliceAngle()
	if within > config.SliceGapRatio {
		return " "
	}
	if ring.IsExcluded(slot) {
		return styleExcluded.Render(glyphExcluded)
	}

	id, ok := v.Snapshot.SlotOwner(slot)
	if !ok {
		return styleEmpty.Render(glyphEmpty)
	}
	rec, _ := v.Snapshot.Record(id)

	glyph := glyphBody
	brightness := Brightness(rec.Signal)
	if frac >= config.RimFraction {
		glyph = glyphRim
		brightness = RimFade(v.Now.Sub(rec.LastSeen), v.StaleTimeout)
	}
	if id == v.Selected {
		brightness = 1
	}
	color := SlotColor(dial.Hue(id), brightness)
	if !v.Snapshot.Active() {
		color = Dim(string(color), config.PausedDimming)
	}

	style := lipgloss.NewStyle().Foreground(color)
	if id == v.Selected {
		style = style.Bold(true)
	}
	return style.Render(glyph)
}

func renderInterior(sweep *Sweep, angle float64) string {
	if sweep == nil {
		return styleDot.Render(".")
	}
	color := sweepColor(sweep.Intensity(angle))
	if color == "" {
		return styleDot.Render(".")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(".")
}

func sweepColor(intensity float64) string {
	switch {
	case intensity <= 0:
		return ""
	case intensity > 0.8:
		return "#00FF41"
	case intensity > 0.5:
		return "#00CC33"
	case intensity > 0.3:
		return "#00AA22"
	default:
		return "#005511"
	}
}

// RenderLegend produces the legend line under the dial.
func RenderLegend(width int) string {
	legend := styleLegend.Render(glyphBody+" signal  "+glyphRim+" last seen  "+glyphEmpty+" free  ") +
		styleGear.Render(glyphGear) + styleLegend.Render(" settings")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
