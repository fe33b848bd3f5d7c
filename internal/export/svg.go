package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/hybsim/internal/analysis"
)

// DefaultStroke is the path color used when none is given.
const DefaultStroke = "#00ff88"

// TrajectoryToSVG renders a phase portrait as SVG. Every flow segment gets
// its own subpath and each reset is marked with a circle.
func TrajectoryToSVG(portrait *analysis.PhasePortrait, width, height int, strokeColor string) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}
	if strokeColor == "" {
		strokeColor = DefaultStroke
	}

	minX, maxX, minY, maxY := portrait.Bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY
	project := func(p analysis.Point) (float64, float64) {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor)

	for s, seg := range portrait.Segments() {
		for i, p := range seg {
			x, y := project(p)
			switch {
			case i == 0 && s == 0:
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			case i == 0:
				fmt.Fprintf(&sb, " M%.1f,%.1f", x, y)
			default:
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
	}
	sb.WriteString(`"/>
`)

	sb.WriteString(`<g fill="#ff5f5f">
`)
	for _, p := range portrait.Points {
		if !p.Jump {
			continue
		}
		x, y := project(p)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3"/>
`, x, y)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// WriteSVG writes the rendered portrait to w.
func WriteSVG(w io.Writer, portrait *analysis.PhasePortrait, width, height int, strokeColor string) error {
	svg := TrajectoryToSVG(portrait, width, height, strokeColor)
	if svg == "" {
		return fmt.Errorf("trajectory too short to render")
	}
	_, err := io.WriteString(w, svg)
	return err
}
