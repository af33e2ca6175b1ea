// Package extract turns parsed pages into scored field candidates.
// Each extractor is stateless and side-effect-free; one extractor
// failing on one page never affects the others.
package extract

import (
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// Field names used as bucket keys throughout the pipeline.
const (
	FieldBrandName  = "brand_name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldLogoURL    = "logo_url"
	FieldColors     = "colors"
	FieldServices   = "services"
	FieldBackground = "background"
	FieldSlogan     = "slogan"
	FieldImages     = "images"
	FieldSocials    = "socials"
)

// Buckets accumulates candidates per field name.
type Buckets map[string][]model.Candidate

func (b Buckets) Add(field string, cands ...model.Candidate) {
	if len(cands) == 0 {
		return
	}
	b[field] = append(b[field], cands...)
}

// Merge appends every bucket of other into b.
func (b Buckets) Merge(other Buckets) {
	for field, cands := range other {
		b[field] = append(b[field], cands...)
	}
}

// Extractor is one per-page candidate producer.
type Extractor interface {
	Name() string
	Extract(doc *htmldoc.Document) (Buckets, error)
}

func prov(doc *htmldoc.Document, path string) []model.Provenance {
	return []model.Provenance{{URL: doc.URL(), Path: path}}
}
