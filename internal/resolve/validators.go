package resolve

import (
	"context"
	"math"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/model"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	zipRe   = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	hexRe   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// MXLookup reports whether a domain has at least one MX record. Injected
// so tests never hit DNS.
type MXLookup func(ctx context.Context, domain string) (bool, error)

func defaultMXLookup(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	records, err := net.DefaultResolver.LookupMX(ctx, domain)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// EmailValidator checks email syntax and, optionally, the domain's MX
// records. A missing MX record never invalidates; it only forfeits the
// bonus.
type EmailValidator struct {
	CheckMX bool
	Bonus   float64
	Lookup  MXLookup
}

// Validate reports whether the email is acceptable, plus the earned bonus
// and a note for the candidate.
func (v EmailValidator) Validate(ctx context.Context, email string) (bool, float64, string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return false, 0, "invalid format"
	}
	if !v.CheckMX {
		return true, 0, ""
	}

	lookup := v.Lookup
	if lookup == nil {
		lookup = defaultMXLookup
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	ok, err := lookup(ctx, domain)
	if err != nil {
		zap.L().Debug("mx lookup failed", zap.String("domain", domain), zap.Error(err))
		return true, 0, "MX check failed"
	}
	if !ok {
		return true, 0, "MX not found"
	}
	return true, v.Bonus, "MX valid"
}

// PhoneValidator parses phone numbers against a default region and
// formats them to E.164.
type PhoneValidator struct {
	Region string
	Bonus  float64
}

// Validate returns whether the number is valid, its E.164 rendering, the
// earned bonus and a line-type note.
func (v PhoneValidator) Validate(phone string) (bool, string, float64, string) {
	parsed, err := phonenumbers.Parse(phone, v.Region)
	if err != nil {
		return false, "", 0, "parse error: " + err.Error()
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return false, "", 0, "invalid number"
	}

	e164 := phonenumbers.Format(parsed, phonenumbers.E164)
	var note string
	switch phonenumbers.GetNumberType(parsed) {
	case phonenumbers.MOBILE:
		note = "mobile"
	case phonenumbers.FIXED_LINE:
		note = "landline"
	}
	return true, e164, v.Bonus, note
}

// AddressValidator accepts addresses that carry at least one locating
// component and rewards completeness.
type AddressValidator struct{}

// Validate checks an address value. At least one of city, region or
// postal is required; a well-formed US zip and three or more components
// each add a small bonus.
func (AddressValidator) Validate(av model.AddressValue) (bool, float64, string) {
	if av.City == "" && av.Region == "" && av.Postal == "" {
		return false, 0, "insufficient components"
	}

	var notes []string
	var bonus float64
	if av.Postal != "" {
		if zipRe.MatchString(av.Postal) {
			notes = append(notes, "valid zip")
			bonus += 0.05
		} else {
			notes = append(notes, "non-US postal")
		}
	}
	if n := av.ComponentCount(); n >= 3 {
		bonus += 0.05
		notes = append(notes, strconv.Itoa(n)+" components")
	}
	return true, bonus, strings.Join(notes, "; ")
}

// ColorValidator requires every entry to be a six-digit hex color and
// rewards palettes with at least one WCAG AA color.
type ColorValidator struct {
	Bonus float64
}

// Validate checks a color list. All entries must be #RRGGBB; the bonus is
// earned when any color reaches a 4.5:1 contrast ratio against white or
// black.
func (v ColorValidator) Validate(colors []string) (bool, float64, string) {
	for _, c := range colors {
		if !hexRe.MatchString(c) {
			return false, 0, "invalid HEX format"
		}
	}

	whitePass, blackPass := false, false
	for _, c := range colors {
		if PassesWCAGAA(c, "#FFFFFF") {
			whitePass = true
		}
		if PassesWCAGAA(c, "#000000") {
			blackPass = true
		}
	}

	switch {
	case whitePass && blackPass:
		return true, v.Bonus, "AA vs white & black"
	case whitePass:
		return true, v.Bonus, "AA vs white"
	case blackPass:
		return true, v.Bonus, "AA vs black"
	default:
		return true, 0, "low contrast"
	}
}

// PassesWCAGAA reports whether two hex colors have a contrast ratio of at
// least 4.5:1, the WCAG AA threshold for normal text.
func PassesWCAGAA(fg, bg string) bool {
	fr, fok := hexToRGB(fg)
	br, bok := hexToRGB(bg)
	if !fok || !bok {
		return false
	}
	l1 := relativeLuminance(fr)
	l2 := relativeLuminance(br)
	lighter, darker := l1, l2
	if darker > lighter {
		lighter, darker = darker, lighter
	}
	return (lighter+0.05)/(darker+0.05) >= 4.5
}

func hexToRGB(hex string) ([3]float64, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return [3]float64{}, false
	}
	var rgb [3]float64
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return [3]float64{}, false
		}
		rgb[i] = float64(n) / 255.0
	}
	return rgb, true
}

func relativeLuminance(rgb [3]float64) float64 {
	lin := func(c float64) float64 {
		if c <= 0.03928 {
			return c / 12.92
		}
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(rgb[0]) + 0.7152*lin(rgb[1]) + 0.0722*lin(rgb[2])
}
