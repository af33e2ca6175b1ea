// Package report writes the truth record, summary table and crawl log to
// the per-domain output directory.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/model"
)

// maxAssetBytes caps a single asset download.
const maxAssetBytes = 20 << 20

// fieldOrder fixes the row order of summary.csv.
var fieldOrder = []string{
	"brand_name", "address", "email", "phone", "socials", "services",
	"colors", "logo_url", "background", "slogan", "images",
}

// Writer persists one extraction run under <output_dir>/<domain>/, with
// downloaded assets in an assets/ subdirectory.
type Writer struct {
	domainDir string
	assetsDir string
	client    *http.Client
}

// NewWriter creates the per-domain directory tree.
func NewWriter(outputDir, domain string) (*Writer, error) {
	domainDir := filepath.Join(outputDir, sanitizeDomain(domain))
	assetsDir := filepath.Join(domainDir, "assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "report: create output dir")
	}
	return &Writer{
		domainDir: domainDir,
		assetsDir: assetsDir,
		client:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Dir returns the per-domain output directory.
func (w *Writer) Dir() string { return w.domainDir }

// WriteTruthJSON writes truth.json with confidences and scores rounded to
// two decimals.
func (w *Writer) WriteTruthJSON(record *model.TruthRecord) (string, error) {
	rounded := *record
	rounded.Fields = make(map[string]model.FieldResult, len(record.Fields))
	for name, fr := range record.Fields {
		fr.Confidence = round2(fr.Confidence)
		rounded.Fields[name] = fr
	}
	rounded.Candidates = make(map[string][]model.CandidateRecord, len(record.Candidates))
	for name, cands := range record.Candidates {
		out := make([]model.CandidateRecord, len(cands))
		for i, c := range cands {
			c.Score = round2(c.Score)
			out[i] = c
		}
		rounded.Candidates[name] = out
	}
	return w.writeJSON("truth.json", rounded)
}

// WriteSummaryCSV writes one row per resolved field with the value
// flattened to a single cell.
func (w *Writer) WriteSummaryCSV(fields map[string]model.FieldResult) (string, error) {
	outPath := filepath.Join(w.domainDir, "summary.csv")
	f, err := os.Create(outPath)
	if err != nil {
		return "", eris.Wrap(err, "report: create summary.csv")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"field", "value", "confidence", "source"}); err != nil {
		return "", eris.Wrap(err, "report: write csv header")
	}

	for _, name := range orderedFields(fields) {
		fr := fields[name]
		source := ""
		if len(fr.Provenance) > 0 {
			source = fr.Provenance[0].Path
		}
		row := []string{
			name,
			flattenValue(fr.Value),
			strconv.FormatFloat(round2(fr.Confidence), 'g', -1, 64),
			source,
		}
		if err := cw.Write(row); err != nil {
			return "", eris.Wrap(err, "report: write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", eris.Wrap(err, "report: flush csv")
	}
	zap.L().Info("wrote summary.csv", zap.String("path", outPath))
	return outPath, nil
}

// WriteCrawlJSON writes the crawl metadata and per-page visit log.
func (w *Writer) WriteCrawlJSON(report model.CrawlReport) (string, error) {
	return w.writeJSON("crawl.json", report)
}

// DownloadAsset fetches an asset into assets/ and returns its path
// relative to the domain directory. Failures are reported, not fatal.
func (w *Writer) DownloadAsset(ctx context.Context, rawURL, preferredName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "report: build asset request")
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "report: fetch asset")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("report: asset fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return "", eris.Wrap(err, "report: read asset body")
	}

	name := assetFilename(rawURL, preferredName, resp.Header.Get("Content-Type"))
	outPath := filepath.Join(w.assetsDir, name)
	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return "", eris.Wrap(err, "report: write asset")
	}

	zap.L().Info("downloaded asset",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.String("path", outPath))
	return filepath.ToSlash(filepath.Join("assets", name)), nil
}

func (w *Writer) writeJSON(name string, v any) (string, error) {
	outPath := filepath.Join(w.domainDir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "report: marshal %s", name)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write %s", name)
	}
	zap.L().Info("wrote "+name, zap.String("path", outPath))
	return outPath, nil
}

// orderedFields yields the known fields in canonical order, then any
// extras alphabetically.
func orderedFields(fields map[string]model.FieldResult) []string {
	known := map[string]bool{}
	var out []string
	for _, name := range fieldOrder {
		if _, ok := fields[name]; ok {
			out = append(out, name)
			known[name] = true
		}
	}
	var extras []string
	for name := range fields {
		if !known[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}

// flattenValue renders a field value as a single CSV cell: lists join
// with commas, structured values serialize as JSON, nil is empty.
func flattenValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func sanitizeDomain(domain string) string {
	clean := domain
	if strings.Contains(clean, "://") {
		if u, err := url.Parse(clean); err == nil && u.Host != "" {
			clean = u.Host
		}
	}
	clean = strings.TrimPrefix(clean, "www.")
	clean = strings.ReplaceAll(clean, ":", "-")
	return strings.ReplaceAll(clean, "/", "-")
}

// assetFilename picks a filename from the preferred name or URL path,
// inferring an extension from the content type when the name has none.
func assetFilename(rawURL, preferredName, contentType string) string {
	name := preferredName
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if name == "" {
			name = base
		}
		ext = path.Ext(base)
	}
	if name == "" {
		name = "asset"
	}

	if path.Ext(name) == "" {
		if ext == "" {
			switch {
			case strings.Contains(contentType, "svg"):
				ext = ".svg"
			case strings.Contains(contentType, "png"):
				ext = ".png"
			case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
				ext = ".jpg"
			case strings.Contains(contentType, "webp"):
				ext = ".webp"
			}
		}
		name += ext
	}
	return name
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
