package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

func parseDoc(t *testing.T, html string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.Parse(html, "https://acme.example/")
	require.NoError(t, err)
	return doc
}

func TestStructuredDataOrganization(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head><script type="application/ld+json">
	{
		"@type": "Organization",
		"name": "Acme Co",
		"legalName": "Acme Company LLC",
		"email": "hello@acme.example",
		"telephone": "202-456-1111",
		"logo": "https://acme.example/logo.png",
		"description": "Plumbing done right since 1987.",
		"address": {
			"streetAddress": "123 Main St",
			"addressLocality": "Springfield",
			"addressRegion": "IL",
			"postalCode": "62701"
		}
	}
	</script></head><body></body></html>`)

	buckets, err := NewStructuredDataExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	names := buckets[FieldBrandName]
	require.Len(t, names, 2)
	assert.Equal(t, "Acme Co", names[0].Value)
	assert.InDelta(t, 1.0, names[0].Score(), 1e-9)
	assert.Equal(t, "Acme Company LLC", names[1].Value)
	assert.InDelta(t, 0.95, names[1].Score(), 1e-9)

	require.Len(t, buckets[FieldEmail], 1)
	assert.Equal(t, "hello@acme.example", buckets[FieldEmail][0].Value)

	require.Len(t, buckets[FieldPhone], 1)
	assert.Equal(t, "202-456-1111", buckets[FieldPhone][0].Value)

	require.Len(t, buckets[FieldAddress], 1)
	addr := buckets[FieldAddress][0].Value.(model.AddressValue)
	assert.Equal(t, "Springfield", addr.City)
	assert.Equal(t, "123 Main St, Springfield, IL, 62701", addr.Formatted)

	require.Len(t, buckets[FieldLogoURL], 1)
	assert.Equal(t, "https://acme.example/logo.png", buckets[FieldLogoURL][0].Value)

	require.Len(t, buckets[FieldBackground], 1)
}

func TestStructuredDataGraphAndTypeList(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head><script type="application/ld+json">
	{"@graph": [
		{"@type": ["LocalBusiness", "Plumber"], "name": "Graph Plumbing"},
		{"@type": "WebSite", "name": "ignored"}
	]}
	</script></head><body></body></html>`)

	buckets, err := NewStructuredDataExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldBrandName], 1)
	assert.Equal(t, "Graph Plumbing", buckets[FieldBrandName][0].Value)
}

func TestStructuredDataImageObjectLogo(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head><script type="application/ld+json">
	{"@type": "LocalBusiness", "name": "Acme", "logo": {"@type": "ImageObject", "url": "/img/logo.svg"}}
	</script></head><body></body></html>`)

	buckets, err := NewStructuredDataExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldLogoURL], 1)
	assert.Equal(t, "https://acme.example/img/logo.svg", buckets[FieldLogoURL][0].Value)
}

func TestStructuredDataMalformedJSONSkipped(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">{not json at all</script>
	<script type="application/ld+json">{"@type": "Organization", "name": "Valid Co"}</script>
	</head><body></body></html>`)

	buckets, err := NewStructuredDataExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)
	require.Len(t, buckets[FieldBrandName], 1)
	assert.Equal(t, "Valid Co", buckets[FieldBrandName][0].Value)
}
