package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/storage"
)

// FrameToSVG draws one frame in world coordinates. The world is already
// +y down, so no flip is needed.
func FrameToSVG(f dynamo.Frame, width, height int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, b := range f.Statics {
		writeBody(&sb, b, "#444444")
	}
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#cccccc" stroke-width="2"/>
`, f.Cart.Position.X, f.Cart.Position.Y, f.Bob.Position.X, f.Bob.Position.Y)
	writeBody(&sb, f.Cart, "#00aaff")
	writeBody(&sb, f.Bob, "#ff5555")

	sb.WriteString("</svg>")
	return sb.String()
}

// SaveFrameSVG writes FrameToSVG output to filename.
func SaveFrameSVG(filename string, f dynamo.Frame, width, height int) error {
	return os.WriteFile(filename, []byte(FrameToSVG(f, width, height)), 0644)
}

func writeBody(sb *strings.Builder, b dynamo.BodyView, fill string) {
	switch b.Shape {
	case dynamo.ShapeCircle:
		fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, b.Position.X, b.Position.Y, b.Radius, fill)
	default:
		fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, b.Position.X-b.Width/2, b.Position.Y-b.Height/2, b.Width, b.Height, fill)
	}
}

// BobPathSVG traces the bob over a run, scaled to fit.
func BobPathSVG(trace []storage.TraceRow, width, height int, strokeColor string) string {
	if len(trace) < 2 {
		return ""
	}

	minX, maxX := trace[0].BobX, trace[0].BobX
	minY, maxY := trace[0].BobY, trace[0].BobY
	for _, r := range trace {
		minX, maxX = min(minX, r.BobX), max(maxX, r.BobX)
		minY, maxY = min(minY, r.BobY), max(maxY, r.BobY)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, r := range trace {
		x := (r.BobX - minX) / rangeX * float64(width)
		y := (r.BobY - minY) / rangeY * float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
