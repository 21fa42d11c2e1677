package preview

import (
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Layout constants, in pixels.
const (
	// MinWidth is the narrowest image produced, so the panel stays legible
	// for small surfaces.
	MinWidth = 320

	// FontSize is the panel text size.
	FontSize = 12

	// MaxShaderLines bounds how much shader text is shown.
	MaxShaderLines = 14

	margin      = 8
	lineSpacing = 1.25
)

// Panel colors.
var (
	panelColor  = gg.Hex("#11111b")
	textColor   = gg.Hex("#cdd6f4")
	shaderColor = gg.Hex("#a6adc8")
	errorColor  = gg.Hex("#f38ba8")
)

// Panel is the status shown under the surface.
type Panel struct {
	Prompt     string
	ShaderText string
	Error      string
}

// line is one row of panel text.
type line struct {
	text  string
	color gg.RGBA
}

var fontSource = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

// Compose draws surface with p rendered below it. A nil surface is treated
// as an empty one.
func Compose(surface image.Image, p Panel) (*gg.Context, error) {
	src, err := fontSource()
	if err != nil {
		return nil, fmt.Errorf("preview: load font: %w", err)
	}
	face := src.Face(FontSize)

	var sw, sh int
	if surface != nil {
		sw, sh = surface.Bounds().Dx(), surface.Bounds().Dy()
	}
	width := max(sw, MinWidth)
	lines := panelLines(p, face, float64(width-2*margin))

	lineHeight := face.Metrics().LineHeight() * lineSpacing
	panelHeight := 2*margin + int(float64(len(lines))*lineHeight+0.5)

	dc := gg.NewContext(width, sh+panelHeight)
	dc.ClearWithColor(panelColor)
	if surface != nil {
		dc.DrawImage(gg.ImageBufFromImage(surface), 0, 0)
	}

	dc.SetFont(face)
	y := float64(sh+margin) + face.Metrics().Ascent
	for _, l := range lines {
		dc.SetColor(l.color)
		dc.DrawString(l.text, margin, y)
		y += lineHeight
	}
	return dc, nil
}

// WritePNG composes the preview and encodes it as PNG to w.
func WritePNG(w io.Writer, surface image.Image, p Panel) error {
	dc, err := Compose(surface, p)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("preview: encode png: %w", err)
	}
	return nil
}

// panelLines lays out the panel text, wrapping the prompt and the error to
// maxWidth and truncating the shader text.
func panelLines(p Panel, face text.Face, maxWidth float64) []line {
	var lines []line
	if p.Prompt != "" {
		for _, r := range text.WrapText("Prompt: "+p.Prompt, face, maxWidth, text.WrapWord) {
			lines = append(lines, line{r.Text, textColor})
		}
	}
	if p.ShaderText != "" {
		src := strings.Split(strings.TrimRight(p.ShaderText, "\n"), "\n")
		shown := src
		if len(shown) > MaxShaderLines {
			shown = shown[:MaxShaderLines]
		}
		for _, s := range shown {
			lines = append(lines, line{strings.ReplaceAll(s, "\t", "    "), shaderColor})
		}
		if rest := len(src) - len(shown); rest > 0 {
			lines = append(lines, line{fmt.Sprintf("... %d more lines", rest), shaderColor})
		}
	}
	if p.Error != "" {
		for _, r := range text.WrapText(p.Error, face, maxWidth, text.WrapWord) {
			lines = append(lines, line{r.Text, errorColor})
		}
	}
	return lines
}
