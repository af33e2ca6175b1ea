package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/model"
)

func TestContactEmails(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<a href="mailto:Info@Acme.example?subject=Hi">Email</a>
	<section id="contact"><p>Write to sales@acme.example any time.</p></section>
	<footer>support@acme.example</footer>
	</body></html>`)

	buckets, err := NewContactExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	emails := buckets[FieldEmail]
	require.Len(t, emails, 3)
	assert.Equal(t, "info@acme.example", emails[0].Value)
	assert.InDelta(t, 0.9, emails[0].SourceWeight, 1e-9)
	assert.Equal(t, "sales@acme.example", emails[1].Value)
	assert.Equal(t, "support@acme.example", emails[2].Value)
	assert.InDelta(t, 0.6, emails[2].SourceWeight, 1e-9)
}

func TestContactEmailDeduplicatedAcrossSources(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<a href="mailto:info@acme.example">Email</a>
	<footer>info@acme.example</footer>
	</body></html>`)

	buckets, err := NewContactExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)
	assert.Len(t, buckets[FieldEmail], 1)
}

func TestContactPhones(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<header>Call (202) 456-1111 today</header>
	<a href="tel:+1-202-456-2222">Call</a>
	<div id="contact"><p>Phone: 202.456.3333</p></div>
	</body></html>`)

	buckets, err := NewContactExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	phones := buckets[FieldPhone]
	require.Len(t, phones, 3)
	assert.Equal(t, "+1-202-456-2222", phones[0].Value)
	assert.InDelta(t, 0.9, phones[0].SourceWeight, 1e-9)
}

func TestContactAddresses(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<div itemscope itemtype="https://schema.org/PostalAddress">
		<span itemprop="streetAddress">123 Main St</span>
		<span itemprop="addressLocality">Springfield</span>
		<span itemprop="postalCode">62701</span>
	</div>
	<section id="visit-us"><p>Find our shop at 500 Oak Ave, Springfield, IL 62702 near the park.</p></section>
	</body></html>`)

	buckets, err := NewContactExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	addrs := buckets[FieldAddress]
	require.Len(t, addrs, 2)

	micro := addrs[0].Value.(model.AddressValue)
	assert.Equal(t, "123 Main St", micro.Street)
	assert.Equal(t, "123 Main St, Springfield, 62701", micro.Formatted)
	assert.InDelta(t, 0.95, addrs[0].SourceWeight, 1e-9)

	heuristic := addrs[1].Value.(model.AddressValue)
	assert.Equal(t, "62702", heuristic.Postal)
	assert.Equal(t, "US", heuristic.Country)
	assert.Contains(t, heuristic.Formatted, "500 Oak Ave")
	assert.Equal(t, "heuristic extraction", addrs[1].Notes)
}

func TestContactAddressHeuristicKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// Multi-byte text on both sides of the zip forces the context window
	// boundaries onto odd byte offsets; the slice must stay valid UTF-8.
	pad := strings.Repeat("é", 80)
	doc := parseDoc(t, `<html><body>
	<section id="contact"><p>`+pad+` 62701 `+pad+`</p></section>
	</body></html>`)

	buckets, err := NewContactExtractor(config.ExtractionConfig{}).Extract(doc)
	require.NoError(t, err)

	addrs := buckets[FieldAddress]
	require.NotEmpty(t, addrs)
	addr := addrs[0].Value.(model.AddressValue)
	assert.Equal(t, "62701", addr.Postal)
	assert.True(t, utf8.ValidString(addr.Formatted))
	assert.Contains(t, addr.Formatted, "62701")
}
