package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/model"
)

func TestSocialsExtraction(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<a href="https://www.facebook.com/acmeplumbing/">Facebook</a>
	<a href="http://twitter.com/acmeplumb">Twitter</a>
	<a href="https://www.instagram.com/acmeplumbing">Instagram</a>
	<a href="https://www.linkedin.com/company/acme-plumbing/">LinkedIn</a>
	<a href="https://www.yelp.com/biz/acme-plumbing-springfield">Yelp</a>
	<a href="https://www.facebook.com/sharer/sharer.php?u=x">Share</a>
	<a href="https://www.instagram.com/p/abc123/">Post</a>
	</body></html>`)

	buckets, err := NewSocialsExtractor().Extract(doc)
	require.NoError(t, err)

	get := func(platform string) []string {
		var vals []string
		for _, c := range buckets[FieldSocials+"."+platform] {
			vals = append(vals, c.Value.(string))
		}
		return vals
	}

	assert.Equal(t, []string{"https://www.facebook.com/acmeplumbing"}, get("facebook"))
	assert.Equal(t, []string{"https://x.com/acmeplumb"}, get("x"), "twitter host folds into x.com")
	assert.Equal(t, []string{"https://www.instagram.com/acmeplumbing"}, get("instagram"))
	assert.Equal(t, []string{"https://www.linkedin.com/company/acme-plumbing"}, get("linkedin"))
	assert.Equal(t, []string{"https://www.yelp.com/biz/acme-plumbing-springfield"}, get("yelp"))

	for _, c := range buckets[FieldSocials+".facebook"] {
		assert.NotContains(t, c.Value, "sharer")
	}
	assert.Empty(t, get("tiktok"))
}

func TestSocialsPinterest(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<a href="https://www.pinterest.com/acmeplumbing/">Pinterest</a>
	<a href="https://www.pinterest.com/pin/1234567890/">A pin</a>
	</body></html>`)

	buckets, err := NewSocialsExtractor().Extract(doc)
	require.NoError(t, err)

	cands := buckets[FieldSocials+".pinterest"]
	require.Len(t, cands, 1, "profile kept, individual pin skipped")
	assert.Equal(t, "https://www.pinterest.com/acmeplumbing", cands[0].Value)
}

func TestSocialsCoverEveryReportedPlatform(t *testing.T) {
	t.Parallel()

	// The resolver emits a key for every platform in model.SocialPlatforms;
	// each of those must be recognizable by the extractor.
	for _, platform := range model.SocialPlatforms {
		_, ok := socialPlatforms[platform]
		assert.True(t, ok, platform)
	}
}

func TestSocialsConstantWeights(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><a href="https://facebook.com/acme">FB</a></body></html>`)
	buckets, err := NewSocialsExtractor().Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldSocials+".facebook"], 1)
	c := buckets[FieldSocials+".facebook"][0]
	assert.InDelta(t, 0.85, c.SourceWeight, 1e-9)
	assert.InDelta(t, 0.9, c.MethodWeight, 1e-9)
}
