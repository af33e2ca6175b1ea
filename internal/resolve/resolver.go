package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/model"
)

// socialConfidence is the flat confidence assigned when at least one
// social profile resolved; individual platform scores are not averaged.
const socialConfidence = 0.85

// maxResolvedImages caps the image list so the truth record stays a
// reasonable size.
const maxResolvedImages = 50

var legalSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+LLC$`),
	regexp.MustCompile(`(?i)\s+L\.L\.C\.$`),
	regexp.MustCompile(`(?i)\s+Inc\.?$`),
	regexp.MustCompile(`(?i)\s+Incorporated$`),
	regexp.MustCompile(`(?i)\s+Corp\.?$`),
	regexp.MustCompile(`(?i)\s+Corporation$`),
	regexp.MustCompile(`(?i)\s+Ltd\.?$`),
	regexp.MustCompile(`(?i)\s+Limited$`),
	regexp.MustCompile(`(?i)\s+Co\.$`),
	regexp.MustCompile(`(?i)\s+Company$`),
}

// Resolver turns scored candidates into final field results, applying the
// per-family validation and selection recipes.
type Resolver struct {
	email        EmailValidator
	phone        PhoneValidator
	addr         AddressValidator
	color        ColorValidator
	geocodeToken string
}

// New builds a resolver from the extraction config. The geocode token is
// recorded but geocoding itself is not performed.
func New(cfg config.ExtractionConfig, geocodeToken string) *Resolver {
	return &Resolver{
		email: EmailValidator{
			CheckMX: cfg.CheckMX,
			Bonus:   cfg.Bonus("email_mx_valid", 0.1),
		},
		phone: PhoneValidator{
			Region: cfg.PhoneRegion,
			Bonus:  cfg.Bonus("phone_valid", 0.1),
		},
		color:        ColorValidator{Bonus: cfg.Bonus("color_wcag_aa", 0.1)},
		geocodeToken: geocodeToken,
	}
}

// BrandName strips legal suffixes, deduplicates and picks the best name.
func (r *Resolver) BrandName(candidates []model.Candidate) model.FieldResult {
	if len(candidates) == 0 {
		return model.NullFieldResult()
	}
	normalized := make([]model.Candidate, len(candidates))
	copy(normalized, candidates)
	for i, c := range normalized {
		if s, ok := c.Value.(string); ok {
			normalized[i].Value = StripLegalSuffixes(s)
		}
	}
	return winner(ScoreCandidates(Deduplicate(normalized)))
}

// Email validates every candidate, drops the invalid ones and picks the
// best survivor.
func (r *Resolver) Email(ctx context.Context, candidates []model.Candidate) model.FieldResult {
	var valid []model.Candidate
	for _, c := range candidates {
		s, ok := c.Value.(string)
		if !ok {
			continue
		}
		pass, bonus, notes := r.email.Validate(ctx, s)
		if !pass {
			continue
		}
		c.Value = strings.ToLower(strings.TrimSpace(s))
		c.ValidatorBonus += bonus
		if notes != "" {
			c.Notes = notes
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(Deduplicate(valid)))
}

// Phone validates candidates against the configured region and rewrites
// survivors to E.164 before picking the winner.
func (r *Resolver) Phone(candidates []model.Candidate) model.FieldResult {
	var valid []model.Candidate
	for _, c := range candidates {
		s, ok := c.Value.(string)
		if !ok {
			continue
		}
		pass, e164, bonus, notes := r.phone.Validate(s)
		if !pass {
			continue
		}
		c.Value = e164
		c.ValidatorBonus += bonus
		if notes != "" {
			c.Notes = notes
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(Deduplicate(valid)))
}

// Address validates candidates and picks the best surviving address.
func (r *Resolver) Address(candidates []model.Candidate) model.FieldResult {
	var valid []model.Candidate
	for _, c := range candidates {
		av, ok := c.Value.(model.AddressValue)
		if !ok {
			continue
		}
		pass, bonus, notes := r.addr.Validate(av)
		if !pass {
			continue
		}
		c.ValidatorBonus += bonus
		if r.geocodeToken != "" {
			if notes != "" {
				notes += "; "
			}
			notes += "geocoding not performed"
		}
		if notes != "" {
			c.Notes = notes
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(valid))
}

// Socials picks the best profile URL per platform. Every known platform
// appears in the value; platforms without a profile are nil. Confidence is
// flat when anything resolved at all.
func (r *Resolver) Socials(byPlatform map[string][]model.Candidate) model.FieldResult {
	value := model.SocialsValue{}
	var prov []model.Provenance
	found := 0
	for _, platform := range model.SocialPlatforms {
		cands := byPlatform[platform]
		if len(cands) == 0 {
			value[platform] = nil
			continue
		}
		w := ScoreCandidates(Deduplicate(cands))[0]
		if s, ok := w.Value.(string); ok && w.SourceWeight > 0 {
			url := s
			value[platform] = &url
			found++
			prov = append(prov, w.Provenance...)
		} else {
			value[platform] = nil
		}
	}
	if found == 0 {
		return model.NullFieldResult()
	}
	if len(prov) > 5 {
		prov = prov[:5]
	}
	return model.FieldResult{
		Value:      value,
		Confidence: socialConfidence,
		Provenance: prov,
		Notes:      fmt.Sprintf("found %d platforms", found),
	}
}

// Services picks the best whole list; per-item merging across candidates
// happens upstream when page lists are combined.
func (r *Resolver) Services(candidates []model.Candidate) model.FieldResult {
	if len(candidates) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(candidates))
}

// Colors validates candidate palettes and picks the best survivor.
func (r *Resolver) Colors(candidates []model.Candidate) model.FieldResult {
	var valid []model.Candidate
	for _, c := range candidates {
		colors, ok := c.Value.([]string)
		if !ok {
			continue
		}
		pass, bonus, notes := r.color.Validate(colors)
		if !pass {
			continue
		}
		c.ValidatorBonus += bonus
		if notes != "" {
			c.Notes = notes
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(valid))
}

// Logo deduplicates URL candidates and picks the best one.
func (r *Resolver) Logo(candidates []model.Candidate) model.FieldResult {
	if len(candidates) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(Deduplicate(candidates)))
}

// Images keeps every distinct image rather than a single winner: the
// value is the top-scored URLs and the confidence is their average score.
func (r *Resolver) Images(candidates []model.Candidate) model.FieldResult {
	if len(candidates) == 0 {
		return model.NullFieldResult()
	}

	seen := map[string]bool{}
	var unique []model.Candidate
	for _, c := range candidates {
		s, ok := c.Value.(string)
		if !ok || s == "" || c.SourceWeight <= 0 {
			continue
		}
		key := normalizeImageURL(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	if len(unique) == 0 {
		return model.NullFieldResult()
	}

	sorted := ScoreCandidates(unique)
	top := sorted
	if len(top) > maxResolvedImages {
		top = top[:maxResolvedImages]
	}

	urls := make([]string, 0, len(top))
	var sum float64
	var prov []model.Provenance
	for _, c := range top {
		urls = append(urls, c.Value.(string))
		sum += c.Score()
		prov = append(prov, c.Provenance...)
	}
	if len(prov) > 10 {
		prov = prov[:10]
	}

	zap.L().Debug("resolved images",
		zap.Int("kept", len(urls)),
		zap.Int("candidates", len(sorted)))

	return model.FieldResult{
		Value:      urls,
		Confidence: sum / float64(len(top)),
		Provenance: prov,
		Notes:      fmt.Sprintf("extracted %d images from %d candidates", len(urls), len(sorted)),
	}
}

// Text resolves free-text fields such as background and slogan.
func (r *Resolver) Text(candidates []model.Candidate) model.FieldResult {
	if len(candidates) == 0 {
		return model.NullFieldResult()
	}
	return winner(ScoreCandidates(Deduplicate(candidates)))
}

// StripLegalSuffixes removes trailing legal forms (LLC, Inc., Corp. and
// friends) from a business name.
func StripLegalSuffixes(name string) string {
	out := name
	for _, re := range legalSuffixes {
		out = re.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}

// winner picks the first candidate still carrying source weight; a
// zeroed-out candidate never wins, even when it is the only one left.
func winner(sorted []model.Candidate) model.FieldResult {
	for _, w := range sorted {
		if w.SourceWeight <= 0 {
			continue
		}
		prov := w.Provenance
		if prov == nil {
			prov = []model.Provenance{}
		}
		return model.FieldResult{
			Value:      w.Value,
			Confidence: w.Score(),
			Provenance: prov,
			Notes:      w.Notes,
		}
	}
	return model.NullFieldResult()
}
