package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>  Acme Plumbing LLC - Home  </title>
<meta name="description" content="Trusted plumbing since 1987">
<meta property="og:title" content="Acme Plumbing">
<meta name="theme-color" content="#0044cc">
<style>:root { --brand-primary: #0044cc; --brand-accent: #ffaa00; }</style>
<script type="application/ld+json">{"@type":"Organization","name":"Acme Plumbing"}</script>
</head>
<body>
<header>
  <nav>
    <a href="/about">About Us</a>
    <a href="/services">Services</a>
    <a href="/contact#map">Contact</a>
  </nav>
  <img src="/img/logo.svg" alt="Acme Plumbing logo" class="site-logo" width="200" height="60">
</header>
<main>
  <h1>Acme Plumbing</h1>
  <p>Reliable repairs across the metro area. Family owned and operated for decades.</p>
  <a href="https://example.com/quote">Get a quote</a>
  <a href="javascript:void(0)">noop</a>
  <a href="#top">top</a>
  <a href="mailto:info@acme.example?subject=Hello">Email us</a>
  <a href="tel:+1-202-456-1111">Call</a>
  <a href="https://www.facebook.com/acmeplumbing">Facebook</a>
  <div itemscope itemtype="https://schema.org/PostalAddress">
    <span itemprop="streetAddress">123 Main St</span>
    <span itemprop="addressLocality">Springfield</span>
    <span itemprop="addressRegion">IL</span>
    <span itemprop="postalCode">62701</span>
  </div>
  <section id="about-us"><h2>About</h2><p>We fix pipes. Our crew is licensed and insured.</p></section>
</main>
<footer><a href="/about">About Us</a></footer>
</body>
</html>`

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content, "https://acme.example/")
	require.NoError(t, err)
	return doc
}

func TestTitleAndMeta(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	assert.Equal(t, "Acme Plumbing LLC - Home", doc.Title())
	assert.Equal(t, "Trusted plumbing since 1987", doc.MetaContent("description"))
	assert.Equal(t, "Acme Plumbing", doc.MetaContent("og:title"))
	assert.Equal(t, "", doc.MetaContent("keywords"))
}

func TestAllLinks(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	links := doc.AllLinks()
	assert.Contains(t, links, "https://acme.example/about")
	assert.Contains(t, links, "https://acme.example/services")
	assert.Contains(t, links, "https://acme.example/contact")
	assert.Contains(t, links, "https://example.com/quote")

	for _, l := range links {
		assert.NotContains(t, l, "javascript:")
		assert.NotContains(t, l, "mailto:")
		assert.NotContains(t, l, "#")
	}
	// /about appears in nav and footer but must be listed once.
	count := 0
	for _, l := range links {
		if l == "https://acme.example/about" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNavigationLinks(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	nav := doc.NavigationLinks()
	assert.Contains(t, nav, "https://acme.example/about")
	assert.Contains(t, nav, "https://acme.example/services")
	assert.NotContains(t, nav, "https://example.com/quote")
}

func TestContactHelpers(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	assert.Equal(t, []string{"info@acme.example"}, doc.MailtoLinks())
	assert.Equal(t, []string{"+1-202-456-1111"}, doc.TelLinks())
}

func TestStructuredDataScripts(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	scripts := doc.StructuredDataScripts()
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], `"Organization"`)
}

func TestSocialLinks(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	socials := doc.SocialLinks([]string{"facebook.com", "instagram.com"})
	assert.Equal(t, []string{"https://www.facebook.com/acmeplumbing"}, socials)
}

func TestCSSVariables(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	vars := doc.CSSVariables()
	byName := map[string]string{}
	var names []string
	for _, v := range vars {
		byName[v.Name] = v.Value
		names = append(names, v.Name)
	}
	assert.Equal(t, "#0044cc", byName["--brand-primary"])
	assert.Equal(t, "#ffaa00", byName["--brand-accent"])
	// Declaration order is preserved.
	assert.Equal(t, []string{"--brand-primary", "--brand-accent"}, names)
}

func TestImages(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	all := doc.Images(nil)
	require.Len(t, all, 1)
	assert.Equal(t, "https://acme.example/img/logo.svg", all[0].URL)
	assert.Equal(t, "Acme Plumbing logo", all[0].Alt)
	assert.Equal(t, 200, all[0].Width)
	assert.Equal(t, 60, all[0].Height)

	assert.Len(t, doc.Images([]string{"logo"}), 1)
	assert.Empty(t, doc.Images([]string{"banner"}))
}

func TestStructuredAddresses(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	addrs := doc.StructuredAddresses()
	require.Len(t, addrs, 1)
	assert.Equal(t, "123 Main St", addrs[0].Street)
	assert.Equal(t, "Springfield", addrs[0].City)
	assert.Equal(t, "IL", addrs[0].Region)
	assert.Equal(t, "62701", addrs[0].Postal)
}

func TestFindSectionsByText(t *testing.T) {
	t.Parallel()
	doc := mustParse(t, samplePage)

	sections := doc.FindSectionsByText([]string{"about"})
	require.NotEmpty(t, sections)
	assert.Contains(t, sections[0], "We fix pipes")
}

func TestIsEmptyShellPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			"content page",
			samplePage,
			false,
		},
		{
			"near empty body",
			`<html><body><p>hi</p></body></html>`,
			true,
		},
		{
			"bare spa root",
			`<html><body><div id="root"></div><script src="/app.js"></script></body></html>`,
			true,
		},
		{
			"spa root with rendered content",
			`<html><body><div id="root"><h1>Acme Plumbing</h1><p>We have been fixing pipes in Springfield for over thirty years, offering emergency repairs, installations and maintenance plans for homes and businesses alike.</p></div></body></html>`,
			false,
		},
		{
			"parked domain",
			`<html><body><p>This domain is parked free, courtesy of the registrar. Interested in this name? Contact the broker for pricing today.</p></body></html>`,
			true,
		},
		{
			"client side redirect stub",
			`<html><head><script>window.location.href = "https://real.example/";</script></head></html>`,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := mustParse(t, tt.html)
			assert.Equal(t, tt.want, doc.IsEmptyShellPage())
		})
	}
}
