package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/datadeck-cli/internal/pivot"
)

// Chart kinds.
const (
	ChartBar  = "bar"
	ChartLine = "line"
)

var themes = map[string][]string{
	"default": {"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#00ff00"},
	"neon":    {"#00ffff", "#ff00ff", "#ffff00", "#00ff00", "#ff4444"},
	"cyber":   {"#0ff", "#f0f", "#ff0", "#0f0", "#f44"},
	"matrix":  {"#00ff00", "#009900", "#006600", "#003300", "#001100"},
	"plasma":  {"#ff006e", "#8338ec", "#3a86ff", "#06ffa5", "#ffbe0b"},
}

// Themes lists the palette names accepted by ChartOptions.Theme.
func Themes() []string { return []string{"default", "neon", "cyber", "matrix", "plasma"} }

// ThemeColors resolves a palette; unknown names fall back to "default".
func ThemeColors(name string) []color.Color {
	hex, ok := themes[strings.ToLower(name)]
	if !ok {
		hex = themes["default"]
	}
	out := make([]color.Color, 0, len(hex))
	for _, h := range hex {
		c, err := parseHex(h)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ChartOptions controls PNG rendering of a series.
type ChartOptions struct {
	Kind   string
	Theme  string
	Title  string
	Width  vg.Length
	Height vg.Length
}

// ErrEmptySeries is returned when there is nothing to plot.
var ErrEmptySeries = errors.New("series has no points")

// NewChart builds a bar or line plot of s: one category per point, one
// colored series per measure.
func NewChart(s pivot.Series, opt ChartOptions) (*plot.Plot, error) {
	if len(s.Points) == 0 || len(s.Y) == 0 {
		return nil, ErrEmptySeries
	}
	p := plot.New()
	p.Title.Text = opt.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("%s by %s", strings.Join(s.Y, ", "), s.X)
	}
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = s.X
	p.Y.Label.Text = string(s.Aggregation)
	p.Legend.Top = true

	labels := make([]string, len(s.Points))
	for i, pt := range s.Points {
		labels[i] = pt.Label
	}
	palette := ThemeColors(opt.Theme)
	barWidth := vg.Points(20)
	if len(s.Y) > 1 {
		barWidth = vg.Points(12)
	}

	for yi, y := range s.Y {
		col := palette[yi%len(palette)]
		switch opt.Kind {
		case ChartLine:
			pts := make(plotter.XYs, len(s.Points))
			for i, pt := range s.Points {
				pts[i] = plotter.XY{X: float64(i), Y: pt.Values[yi]}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("line %s: %w", y, err)
			}
			line.Color = col
			line.Width = vg.Points(2)
			p.Add(line)
			p.Legend.Add(y, line)
		default:
			values := make(plotter.Values, len(s.Points))
			for i, pt := range s.Points {
				values[i] = pt.Values[yi]
			}
			bars, err := plotter.NewBarChart(values, barWidth)
			if err != nil {
				return nil, fmt.Errorf("bars %s: %w", y, err)
			}
			bars.Color = col
			bars.LineStyle.Width = vg.Length(0)
			bars.Offset = vg.Length(float64(yi)-float64(len(s.Y)-1)/2) * barWidth
			p.Add(bars)
			p.Legend.Add(y, bars)
		}
	}
	p.Add(plotter.NewGrid())
	p.NominalX(labels...)
	if len(labels) > 8 {
		p.X.Tick.Label.Rotation = math.Pi / 3
		p.X.Tick.Label.YAlign = draw.YCenter
		p.X.Tick.Label.XAlign = draw.XRight
	}
	return p, nil
}

func (o ChartOptions) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 10 * vg.Inch
	}
	if h <= 0 {
		h = 6 * vg.Inch
	}
	return w, h
}

// SaveChart renders s to path; the extension (.png, .svg, .pdf) picks the format.
func SaveChart(s pivot.Series, opt ChartOptions, path string) error {
	p, err := NewChart(s, opt)
	if err != nil {
		return err
	}
	w, h := opt.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// WriteChartPNG renders s as PNG to w.
func WriteChartPNG(w io.Writer, s pivot.Series, opt ChartOptions) error {
	p, err := NewChart(s, opt)
	if err != nil {
		return err
	}
	cw, ch := opt.size()
	wt, err := p.WriterTo(cw, ch, "png")
	if err != nil {
		return fmt.Errorf("chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// parseHex accepts #rgb and #rrggbb.
func parseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
