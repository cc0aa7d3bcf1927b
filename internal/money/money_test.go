package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12", "12.00"},
		{"1234.5", "1234.50"},
		{"1234,56", "1234.56"},
		{"1 234,56", "1234.56"},
		{"1\u00a0234,56", "1234.56"},
		{"1\u202f234,56", "1234.56"},
		{"  33.33 ", "33.33"},
		{"10.500", "10.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1e5", "-5", "12.345", "0x10", "€12"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseSigned(t *testing.T) {
	m, err := ParseSigned("-12.40")
	require.NoError(t, err)
	assert.True(t, m.IsNegative())
	assert.Equal(t, "-12.40", m.String())
}

func TestArithmetic(t *testing.T) {
	a := MustParse("10.25")
	b := MustParse("0.75")

	assert.Equal(t, "11.00", a.Add(b).String())
	assert.Equal(t, "9.50", a.Sub(b).String())
	assert.Equal(t, "-9.50", b.Sub(a).String())

	_, err := b.SubNonNegative(a)
	assert.ErrorIs(t, err, ErrNegativeResult)

	diff, err := a.SubNonNegative(b)
	require.NoError(t, err)
	assert.Equal(t, "9.50", diff.String())
}

func TestMulQuantity_IsExact(t *testing.T) {
	tests := []struct {
		price, qty, exact, shown string
	}{
		{"33.33", "3", "99.99", "99.99"},
		{"500.00", "2", "1000", "1000.00"},
		{"33.33", "1.5", "49.995", "50.00"},
		{"0.33", "1.5", "0.495", "0.50"},
		{"0.01", "0.5", "0.005", "0.01"},
		{"19.99", "0", "0", "0.00"},
	}
	for _, tt := range tests {
		got := MustParse(tt.price).MulQuantity(decimal.RequireFromString(tt.qty))
		assert.True(t, got.Decimal().Equal(decimal.RequireFromString(tt.exact)), "%s x %s = %s", tt.price, tt.qty, got.Decimal())
		assert.Equal(t, tt.shown, got.String())
	}
}

func TestMulQuantity_SumBeforeRounding(t *testing.T) {
	line := MustParse("0.01").MulQuantity(decimal.RequireFromString("0.5"))
	sum := line.Add(line).Add(line)
	assert.True(t, sum.Decimal().Equal(decimal.RequireFromString("0.015")))
	assert.Equal(t, "0.02", sum.String())
	assert.InDelta(t, 0.02, sum.Float64(), 1e-9)
}

func TestPercent_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		base, rate, want string
	}{
		{"99.99", "20", "20.00"}, // 19.998
		{"2000.00", "20", "400.00"},
		{"0.05", "50", "0.03"}, // 0.025
		{"-0.05", "50", "-0.03"},
		{"10.00", "5.5", "0.55"},
		{"123.45", "0", "0.00"},
	}
	for _, tt := range tests {
		got := MustParse(tt.base).Percent(decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got.String(), "%s%% of %s", tt.rate, tt.base)
	}
}

func TestCompare(t *testing.T) {
	a, b := MustParse("1.00"), MustParse("2.00")
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(MustParse("1")))
	assert.True(t, Zero.IsZero())
	assert.True(t, Min(a, b).Equal(a))
	assert.True(t, Min(b, a).Equal(a))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(123456), MustParse("1234.56").Cents())
	assert.Equal(t, "12.34", FromCents(1234).String())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MustParse("19.9")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"19.90"}`, string(b))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12,5","b":7.25}`), &in))
	assert.Equal(t, "12.50", in.A.String())
	assert.Equal(t, "7.25", in.B.String())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"1.234"}`), &in))
}

func TestScanValue(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("15.30"))
	assert.Equal(t, "15.30", m.String())
	require.NoError(t, m.Scan(float64(33.33)))
	assert.Equal(t, "33.33", m.String())
	require.NoError(t, m.Scan(int64(7)))
	assert.Equal(t, "7.00", m.String())

	v, err := MustParse("8.1").Value()
	require.NoError(t, err)
	assert.Equal(t, "8.10", v)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount, lang, currency, want string
	}{
		{"1234.56", "fr", "EUR", "1\u00a0234,56\u00a0€"},
		{"1234.56", "en", "EUR", "€1,234.56"},
		{"0", "fr", "EUR", "0,00\u00a0€"},
		{"1234567.8", "en", "USD", "$1,234,567.80"},
		{"-42.5", "fr", "EUR", "-42,50\u00a0€"},
		{"999", "fr", "XYZ", "999,00\u00a0XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+"/"+tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(MustParse(tt.amount), tt.lang, tt.currency))
		})
	}
}
