package resolve

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/truthscan/internal/model"
)

// ScoreCandidates returns the candidates sorted by score, highest first.
// The sort is stable so extraction order breaks ties.
func ScoreCandidates(candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}

// Deduplicate collapses candidates whose values normalize to the same key,
// keeping the highest-scored one. First occurrence order is preserved.
func Deduplicate(candidates []model.Candidate) []model.Candidate {
	best := make(map[string]int)
	var out []model.Candidate
	for _, c := range candidates {
		key := dedupKey(c.Value)
		if i, ok := best[key]; ok {
			if c.Score() > out[i].Score() {
				out[i] = c
			}
			continue
		}
		best[key] = len(out)
		out = append(out, c)
	}
	return out
}

// Merge combines candidates for the same field into one: the best value
// wins, provenance is pooled, notes are unioned and bonuses averaged.
func Merge(candidates []model.Candidate) (model.Candidate, bool) {
	if len(candidates) == 0 {
		return model.Candidate{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score() > best.Score() {
			best = c
		}
	}

	var prov []model.Provenance
	var bonusSum float64
	var notes []string
	seenNotes := map[string]bool{}
	for _, c := range candidates {
		prov = append(prov, c.Provenance...)
		bonusSum += c.ValidatorBonus
		if c.Notes != "" && !seenNotes[c.Notes] {
			seenNotes[c.Notes] = true
			notes = append(notes, c.Notes)
		}
	}
	if len(prov) > 3 {
		prov = prov[:3]
	}

	return model.Candidate{
		Value:          best.Value,
		SourceWeight:   best.SourceWeight,
		MethodWeight:   best.MethodWeight,
		ValidatorBonus: bonusSum / float64(len(candidates)),
		Provenance:     prov,
		Notes:          strings.Join(notes, "; "),
	}, true
}

// dedupKey renders a candidate value as a comparison key. Strings fold
// case, whitespace and unicode compatibility forms; addresses compare by
// their sorted components; lists compare order-insensitively.
func dedupKey(value any) string {
	switch v := value.(type) {
	case string:
		folded := strings.ToLower(norm.NFKC.String(v))
		return strings.Join(strings.Fields(folded), " ")
	case model.AddressValue:
		parts := []string{
			"city=" + strings.ToLower(v.City),
			"postal=" + strings.ToLower(v.Postal),
			"region=" + strings.ToLower(v.Region),
			"street=" + strings.ToLower(v.Street),
		}
		return strings.Join(parts, "|")
	case []string:
		sorted := make([]string, len(v))
		for i, s := range v {
			sorted[i] = strings.ToLower(s)
		}
		sort.Strings(sorted)
		return strings.Join(sorted, "|")
	default:
		return fmt.Sprintf("%v", value)
	}
}

// normalizeImageURL strips query and fragment so resized variants of the
// same asset deduplicate.
func normalizeImageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
