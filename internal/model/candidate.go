package model

// Provenance points at where a candidate value was observed: the page URL
// and a short selector-like path inside it.
type Provenance struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Candidate is one observed value for a field, carrying the weights that
// determine its score. Source weight reflects where the value came from,
// method weight how it was pulled out, and the validator bonus is added
// after the fact by field validation.
type Candidate struct {
	Value          any          `json:"value"`
	SourceWeight   float64      `json:"source_weight"`
	MethodWeight   float64      `json:"method_weight"`
	ValidatorBonus float64      `json:"validator_bonus"`
	Provenance     []Provenance `json:"provenance"`
	Notes          string       `json:"notes,omitempty"`
}

// Score is source_weight * method_weight + validator_bonus, clamped to [0, 1].
func (c Candidate) Score() float64 {
	s := c.SourceWeight*c.MethodWeight + c.ValidatorBonus
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// FieldResult is the resolved value for one field of the truth record.
// A field that could not be resolved has a nil value and zero confidence.
type FieldResult struct {
	Value      any          `json:"value"`
	Confidence float64      `json:"confidence"`
	Provenance []Provenance `json:"provenance"`
	Notes      string       `json:"notes,omitempty"`
}

// NullFieldResult is the resolution outcome for a field with no surviving
// candidates.
func NullFieldResult() FieldResult {
	return FieldResult{
		Value:      nil,
		Confidence: 0,
		Provenance: []Provenance{},
		Notes:      "not found",
	}
}

// AddressValue is a structured postal address. Formatted holds the
// single-line rendering when one was observed directly.
type AddressValue struct {
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	Region    string `json:"region,omitempty"`
	Postal    string `json:"postal,omitempty"`
	Country   string `json:"country,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// ComponentCount reports how many of street, city, region and postal are set.
func (a AddressValue) ComponentCount() int {
	n := 0
	for _, part := range []string{a.Street, a.City, a.Region, a.Postal} {
		if part != "" {
			n++
		}
	}
	return n
}

// SocialPlatforms is the fixed set of platforms the socials field reports,
// in output order.
var SocialPlatforms = []string{
	"facebook",
	"instagram",
	"x",
	"linkedin",
	"youtube",
	"tiktok",
	"yelp",
	"pinterest",
}

// SocialsValue maps platform name to profile URL; platforms with no
// discovered profile are present with a nil entry.
type SocialsValue map[string]*string
