package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// ColorsExtractor pulls brand colors from CSS variables, the
// theme-color meta tag, and as a fallback the dominant colors of the
// already-resolved logo. Each candidate's value is a short list of
// 6-digit hex strings.
type ColorsExtractor struct {
	client *http.Client
}

func NewColorsExtractor() *ColorsExtractor {
	return &ColorsExtractor{client: &http.Client{Timeout: 5 * time.Second}}
}

func (e *ColorsExtractor) Name() string { return "colors" }

// Extract runs without a logo hint; the orchestrator calls
// ExtractWithLogo on the homepage once the logo field is resolved.
func (e *ColorsExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	return e.ExtractWithLogo(context.Background(), doc, "")
}

func (e *ColorsExtractor) ExtractWithLogo(ctx context.Context, doc *htmldoc.Document, logoURL string) (Buckets, error) {
	buckets := Buckets{}

	if colors := e.fromCSSVariables(doc); len(colors) > 0 {
		buckets.Add(FieldColors, model.Candidate{
			Value:        colors,
			SourceWeight: 0.9,
			MethodWeight: 1.0,
			Provenance:   prov(doc, "css_var(--primary)"),
			Notes:        "from CSS variables",
		})
	}

	if theme := doc.MetaContent("theme-color"); theme != "" {
		if hex := NormalizeColor(theme); hex != "" {
			buckets.Add(FieldColors, model.Candidate{
				Value:        []string{hex},
				SourceWeight: 0.85,
				MethodWeight: 1.0,
				Provenance:   prov(doc, "meta[name='theme-color']"),
			})
		}
	}

	if logoURL != "" {
		if colors := e.fromLogo(ctx, logoURL); len(colors) > 0 {
			buckets.Add(FieldColors, model.Candidate{
				Value:        colors,
				SourceWeight: 0.7,
				MethodWeight: 0.8,
				Provenance:   prov(doc, "logo_palette"),
				Notes:        "extracted from logo",
			})
		}
	}

	return buckets, nil
}

var brandVarNames = []string{
	"--primary", "--primary-color", "--brand", "--brand-color",
	"--accent", "--accent-color", "--theme", "--theme-color",
}

func (e *ColorsExtractor) fromCSSVariables(doc *htmldoc.Document) []string {
	vars := doc.CSSVariables()
	byName := make(map[string]string, len(vars))
	for _, v := range vars {
		byName[v.Name] = v.Value
	}

	var colors []string
	appendColor := func(value string) bool {
		hex := NormalizeColor(value)
		if hex == "" {
			return false
		}
		for _, c := range colors {
			if c == hex {
				return false
			}
		}
		colors = append(colors, hex)
		return len(colors) >= 2
	}

	for _, name := range brandVarNames {
		if value, ok := byName[name]; ok && appendColor(value) {
			return colors
		}
	}
	// Fallback scans remaining color-ish variables in declaration order.
	for _, v := range vars {
		if strings.Contains(strings.ToLower(v.Name), "color") && appendColor(v.Value) {
			break
		}
	}
	return colors
}

// fromLogo downloads the logo and quantizes it to its two most common
// non-grayscale colors. SVG and webp logos are skipped since the
// stdlib decoders cannot read them.
func (e *ColorsExtractor) fromLogo(ctx context.Context, logoURL string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil
	}
	resp, err := e.client.Do(req)
	if err != nil {
		zap.L().Debug("logo fetch for palette failed", zap.String("url", logoURL), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		zap.L().Debug("logo decode failed", zap.String("url", logoURL), zap.Error(err))
		return nil
	}
	return dominantColors(img, 2)
}

// dominantColors buckets pixels into a coarse color cube and returns
// the most frequent non-grayscale buckets as hex strings.
func dominantColors(img image.Image, n int) []string {
	type rgb struct{ r, g, b uint8 }
	counts := map[rgb]int{}

	bounds := img.Bounds()
	stepX := max(1, bounds.Dx()/100)
	stepY := max(1, bounds.Dy()/100)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			// Quantize each channel to 32 levels to merge near-identical
			// shades.
			q := rgb{uint8(r >> 8 &^ 7), uint8(g >> 8 &^ 7), uint8(b >> 8 &^ 7)}
			counts[q]++
		}
	}

	type entry struct {
		c     rgb
		count int
	}
	var entries []entry
	for c, count := range counts {
		if isGrayscale(c.r, c.g, c.b) {
			continue
		}
		entries = append(entries, entry{c, count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	var colors []string
	for _, e := range entries {
		colors = append(colors, fmt.Sprintf("#%02X%02X%02X", e.c.r, e.c.g, e.c.b))
		if len(colors) >= n {
			break
		}
	}
	return colors
}

func isGrayscale(r, g, b uint8) bool {
	const threshold = 20
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return diff(r, g) < threshold && diff(g, b) < threshold && diff(r, b) < threshold
}

var (
	hexColorRe      = regexp.MustCompile(`^#([0-9A-Fa-f]{6})$`)
	shortHexColorRe = regexp.MustCompile(`^#([0-9A-Fa-f]{3})$`)
	rgbColorRe      = regexp.MustCompile(`^rgb\((\d+),\s*(\d+),\s*(\d+)\)$`)
)

// NormalizeColor converts #RRGGBB, #RGB and rgb(r,g,b) notations to an
// uppercase 6-digit hex string; anything else yields "".
func NormalizeColor(s string) string {
	s = strings.TrimSpace(s)
	if hexColorRe.MatchString(s) {
		return strings.ToUpper(s)
	}
	if m := shortHexColorRe.FindStringSubmatch(s); m != nil {
		var b strings.Builder
		b.WriteByte('#')
		for _, c := range m[1] {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		return strings.ToUpper(b.String())
	}
	if m := rgbColorRe.FindStringSubmatch(s); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		if r > 255 || g > 255 || b > 255 {
			return ""
		}
		return fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return ""
}
