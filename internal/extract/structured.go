package extract

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// StructuredDataExtractor reads JSON-LD blocks. Structured data is the
// most trusted origin, so its candidates carry the top source weight.
type StructuredDataExtractor struct {
	cfg config.ExtractionConfig
}

func NewStructuredDataExtractor(cfg config.ExtractionConfig) *StructuredDataExtractor {
	return &StructuredDataExtractor{cfg: cfg}
}

func (e *StructuredDataExtractor) Name() string { return "structured_data" }

var orgTypes = []string{"Organization", "LocalBusiness", "Corporation"}

func (e *StructuredDataExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	objects := parseJSONLD(doc)
	sw := e.cfg.SourceWeight("jsonld", 1.0)

	for _, typeName := range orgTypes {
		for _, org := range objectsOfType(objects, typeName) {
			if name, ok := org["name"].(string); ok && strings.TrimSpace(name) != "" {
				buckets.Add(FieldBrandName, model.Candidate{
					Value:        strings.TrimSpace(name),
					SourceWeight: sw,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".name"),
				})
			}
			if legal, ok := org["legalName"].(string); ok && strings.TrimSpace(legal) != "" {
				buckets.Add(FieldBrandName, model.Candidate{
					Value:        strings.TrimSpace(legal),
					SourceWeight: sw * 0.95,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".legalName"),
					Notes:        "legal name",
				})
			}
			if typeName == "Corporation" {
				continue
			}
			if email, ok := org["email"].(string); ok && strings.TrimSpace(email) != "" {
				buckets.Add(FieldEmail, model.Candidate{
					Value:        strings.TrimSpace(email),
					SourceWeight: sw,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".email"),
				})
			}
			if phone, ok := org["telephone"].(string); ok && strings.TrimSpace(phone) != "" {
				buckets.Add(FieldPhone, model.Candidate{
					Value:        strings.TrimSpace(phone),
					SourceWeight: sw,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".telephone"),
				})
			}
			if addr, ok := org["address"].(map[string]any); ok {
				if c := addressCandidate(doc, addr, typeName, sw); c != nil {
					buckets.Add(FieldAddress, *c)
				}
			}
			if logoURL := logoFromJSONLD(org["logo"]); logoURL != "" {
				buckets.Add(FieldLogoURL, model.Candidate{
					Value:        doc.Resolve(logoURL),
					SourceWeight: sw,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".logo"),
				})
			}
			if desc, ok := org["description"].(string); ok && strings.TrimSpace(desc) != "" {
				buckets.Add(FieldBackground, model.Candidate{
					Value:        strings.TrimSpace(desc),
					SourceWeight: sw,
					MethodWeight: 1.0,
					Provenance:   prov(doc, "jsonld."+typeName+".description"),
				})
			}
		}
	}

	// Bare PostalAddress objects outside an organization block.
	for _, addr := range objectsOfType(objects, "PostalAddress") {
		if c := addressCandidate(doc, addr, "PostalAddress", sw); c != nil {
			buckets.Add(FieldAddress, *c)
		}
	}

	return buckets, nil
}

// parseJSONLD decodes every JSON-LD script, flattening @graph arrays
// and top-level lists. Malformed blocks are skipped.
func parseJSONLD(doc *htmldoc.Document) []map[string]any {
	var objects []map[string]any
	appendObj := func(v any) {
		if m, ok := v.(map[string]any); ok {
			objects = append(objects, m)
		}
	}
	for _, script := range doc.StructuredDataScripts() {
		var data any
		if err := json.Unmarshal([]byte(script), &data); err != nil {
			zap.L().Debug("malformed json-ld skipped",
				zap.String("url", doc.URL()), zap.Error(err))
			continue
		}
		switch v := data.(type) {
		case map[string]any:
			if graph, ok := v["@graph"].([]any); ok {
				for _, g := range graph {
					appendObj(g)
				}
			} else {
				appendObj(v)
			}
		case []any:
			for _, item := range v {
				appendObj(item)
			}
		}
	}
	return objects
}

// objectsOfType matches @type whether it is a string, a schema.org
// URL, or a list of types.
func objectsOfType(objects []map[string]any, typeName string) []map[string]any {
	matches := func(t string) bool {
		return t == typeName || strings.HasSuffix(t, "/"+typeName)
	}
	var out []map[string]any
	for _, obj := range objects {
		switch t := obj["@type"].(type) {
		case string:
			if matches(t) {
				out = append(out, obj)
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && matches(s) {
					out = append(out, obj)
					break
				}
			}
		}
	}
	return out
}

func addressCandidate(doc *htmldoc.Document, addr map[string]any, parentType string, sw float64) *model.Candidate {
	str := func(key string) string {
		s, _ := addr[key].(string)
		return strings.TrimSpace(s)
	}
	value := model.AddressValue{
		Street:  str("streetAddress"),
		City:    str("addressLocality"),
		Region:  str("addressRegion"),
		Postal:  str("postalCode"),
		Country: str("addressCountry"),
	}
	if value.ComponentCount() == 0 {
		return nil
	}
	value.Formatted = formatAddress(value)
	return &model.Candidate{
		Value:        value,
		SourceWeight: sw,
		MethodWeight: 1.0,
		Provenance:   prov(doc, "jsonld."+parentType+".address"),
	}
}

func formatAddress(a model.AddressValue) string {
	var parts []string
	for _, p := range []string{a.Street, a.City, a.Region, a.Postal, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func logoFromJSONLD(v any) string {
	switch logo := v.(type) {
	case string:
		return strings.TrimSpace(logo)
	case map[string]any:
		if u, ok := logo["url"].(string); ok && u != "" {
			return strings.TrimSpace(u)
		}
		if u, ok := logo["contentUrl"].(string); ok && u != "" {
			return strings.TrimSpace(u)
		}
	}
	return ""
}
