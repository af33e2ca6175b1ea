package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/model"
)

func TestEmailValidator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects malformed", func(t *testing.T) {
		t.Parallel()
		v := EmailValidator{}
		for _, bad := range []string{"not-an-email", "missing@tld", "@acme.example", "a b@acme.example"} {
			ok, _, notes := v.Validate(ctx, bad)
			assert.False(t, ok, bad)
			assert.Equal(t, "invalid format", notes)
		}
	})

	t.Run("mx found earns bonus", func(t *testing.T) {
		t.Parallel()
		v := EmailValidator{
			CheckMX: true,
			Bonus:   0.1,
			Lookup: func(_ context.Context, domain string) (bool, error) {
				assert.Equal(t, "acme.example", domain)
				return true, nil
			},
		}
		ok, bonus, notes := v.Validate(ctx, "Info@Acme.example")
		require.True(t, ok)
		assert.InDelta(t, 0.1, bonus, 0.0001)
		assert.Equal(t, "MX valid", notes)
	})

	t.Run("mx missing stays valid without bonus", func(t *testing.T) {
		t.Parallel()
		v := EmailValidator{
			CheckMX: true,
			Bonus:   0.1,
			Lookup:  func(context.Context, string) (bool, error) { return false, nil },
		}
		ok, bonus, notes := v.Validate(ctx, "info@acme.example")
		require.True(t, ok)
		assert.Zero(t, bonus)
		assert.Equal(t, "MX not found", notes)
	})

	t.Run("lookup error stays valid", func(t *testing.T) {
		t.Parallel()
		v := EmailValidator{
			CheckMX: true,
			Bonus:   0.1,
			Lookup:  func(context.Context, string) (bool, error) { return false, errors.New("dns timeout") },
		}
		ok, bonus, notes := v.Validate(ctx, "info@acme.example")
		require.True(t, ok)
		assert.Zero(t, bonus)
		assert.Equal(t, "MX check failed", notes)
	})

	t.Run("mx check disabled", func(t *testing.T) {
		t.Parallel()
		v := EmailValidator{CheckMX: false, Bonus: 0.1}
		ok, bonus, notes := v.Validate(ctx, "info@acme.example")
		require.True(t, ok)
		assert.Zero(t, bonus)
		assert.Empty(t, notes)
	})
}

func TestPhoneValidator(t *testing.T) {
	t.Parallel()

	v := PhoneValidator{Region: "US", Bonus: 0.1}

	t.Run("formats to E.164", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"202-456-1111", "(202) 456-1111", "202.456.1111", "+1 202 456 1111"} {
			ok, e164, bonus, _ := v.Validate(raw)
			require.True(t, ok, raw)
			assert.Equal(t, "+12024561111", e164)
			assert.InDelta(t, 0.1, bonus, 0.0001)
		}
	})

	t.Run("rejects invalid numbers", func(t *testing.T) {
		t.Parallel()
		ok, _, bonus, notes := v.Validate("123-456-7890")
		assert.False(t, ok)
		assert.Zero(t, bonus)
		assert.Equal(t, "invalid number", notes)
	})

	t.Run("rejects unparseable input", func(t *testing.T) {
		t.Parallel()
		ok, _, _, notes := v.Validate("call us today")
		assert.False(t, ok)
		assert.Contains(t, notes, "parse error")
	})
}

func TestAddressValidator(t *testing.T) {
	t.Parallel()

	v := AddressValidator{}

	t.Run("street alone is insufficient", func(t *testing.T) {
		t.Parallel()
		ok, _, notes := v.Validate(model.AddressValue{Street: "100 Main St"})
		assert.False(t, ok)
		assert.Equal(t, "insufficient components", notes)
	})

	t.Run("full address earns zip and completeness bonuses", func(t *testing.T) {
		t.Parallel()
		ok, bonus, notes := v.Validate(model.AddressValue{
			Street: "100 Main St", City: "Austin", Region: "TX", Postal: "78701",
		})
		require.True(t, ok)
		assert.InDelta(t, 0.10, bonus, 0.0001)
		assert.Contains(t, notes, "valid zip")
		assert.Contains(t, notes, "4 components")
	})

	t.Run("zip+4 accepted", func(t *testing.T) {
		t.Parallel()
		ok, bonus, _ := v.Validate(model.AddressValue{City: "Austin", Postal: "78701-1234"})
		require.True(t, ok)
		assert.InDelta(t, 0.05, bonus, 0.0001)
	})

	t.Run("foreign postal noted without bonus", func(t *testing.T) {
		t.Parallel()
		ok, bonus, notes := v.Validate(model.AddressValue{City: "London", Postal: "SW1A 1AA"})
		require.True(t, ok)
		assert.Zero(t, bonus)
		assert.Contains(t, notes, "non-US postal")
	})
}

func TestColorValidator(t *testing.T) {
	t.Parallel()

	v := ColorValidator{Bonus: 0.1}

	t.Run("rejects non-hex entries", func(t *testing.T) {
		t.Parallel()
		for _, colors := range [][]string{
			{"#0044CC", "blue"},
			{"#04C"},
			{"rgb(0,68,204)"},
		} {
			ok, _, notes := v.Validate(colors)
			assert.False(t, ok)
			assert.Equal(t, "invalid HEX format", notes)
		}
	})

	t.Run("dark color passes against white", func(t *testing.T) {
		t.Parallel()
		ok, bonus, notes := v.Validate([]string{"#0044CC"})
		require.True(t, ok)
		assert.InDelta(t, 0.1, bonus, 0.0001)
		assert.Equal(t, "AA vs white", notes)
	})

	t.Run("light color passes against black", func(t *testing.T) {
		t.Parallel()
		ok, bonus, notes := v.Validate([]string{"#FFAA00"})
		require.True(t, ok)
		assert.InDelta(t, 0.1, bonus, 0.0001)
		assert.Equal(t, "AA vs black", notes)
	})

	t.Run("mixed palette passes both", func(t *testing.T) {
		t.Parallel()
		ok, bonus, notes := v.Validate([]string{"#0044CC", "#FFAA00"})
		require.True(t, ok)
		assert.InDelta(t, 0.1, bonus, 0.0001)
		assert.Equal(t, "AA vs white & black", notes)
	})
}

func TestPassesWCAGAA(t *testing.T) {
	t.Parallel()

	// Black on white is the 21:1 extreme.
	assert.True(t, PassesWCAGAA("#000000", "#FFFFFF"))
	assert.True(t, PassesWCAGAA("#FFFFFF", "#000000"))
	// Near-identical colors have almost no contrast.
	assert.False(t, PassesWCAGAA("#777777", "#888888"))
	// Malformed input never passes.
	assert.False(t, PassesWCAGAA("nope", "#FFFFFF"))
}
