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
		{"10", "10.00"},
		{"10.5", "10.50"},
		{"0.01", "0.01"},
		{"-3.2", "-3.20"},
		{"1234567.89", "1234567.89"},
	}
	for _, tt := range tests {
		a, err := Parse(tt.in)
		require.NoError(t, err, "Parse(%q)", tt.in)
		assert.Equal(t, tt.want, a.String(), "Parse(%q)", tt.in)
	}

	_, err := Parse("ten")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ten"`)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"2.675", "2.68"},
		{"-1.005", "-1.01"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MustParse(tt.in).Round().String(), "Round(%s)", tt.in)
	}
}

func TestHasValidScale(t *testing.T) {
	assert.True(t, MustParse("1").HasValidScale())
	assert.True(t, MustParse("1.5").HasValidScale())
	assert.True(t, MustParse("1.50").HasValidScale())
	assert.True(t, MustParse("1.500").HasValidScale(), "trailing zeros do not add precision")
	assert.False(t, MustParse("1.005").HasValidScale())
	assert.False(t, MustParse("0.001").HasValidScale())
}

func TestArithmeticIsExact(t *testing.T) {
	// 0.1 added a thousand times drifts with float64 but not here.
	sum := Zero
	tenCents := MustParse("0.10")
	for i := 0; i < 1000; i++ {
		sum = sum.Add(tenCents)
	}
	assert.Equal(t, "100.00", sum.String())

	for i := 0; i < 1000; i++ {
		sum = sum.Sub(tenCents)
	}
	assert.True(t, sum.IsZero())
}

func TestCompare(t *testing.T) {
	five := MustParse("5")
	assert.Equal(t, 0, five.Cmp(MustParse("5.00")))
	assert.True(t, five.Equal(MustParse("5.00")))
	assert.Equal(t, -1, five.Cmp(MustParse("5.01")))
	assert.Equal(t, 1, five.Cmp(MustParse("4.99")))

	assert.True(t, five.IsPositive())
	assert.False(t, five.IsNegative())
	assert.True(t, five.Sub(MustParse("5.01")).IsNegative())
	assert.False(t, Zero.IsPositive())
	assert.True(t, Zero.IsZero())
}

func TestFromCents(t *testing.T) {
	assert.Equal(t, "12.34", FromCents(1234).String())
	assert.Equal(t, "0.01", FromCents(1).String())
	assert.Equal(t, int64(1234), MustParse("12.34").Cents())
	assert.Equal(t, int64(101), MustParse("1.005").Cents())
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount Amount `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: MustParse("7")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"7.00"}`, string(data))

	var fromString payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.30"}`), &fromString))
	assert.Equal(t, "12.30", fromString.Amount.String())

	var fromNumber payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":12.3}`), &fromNumber))
	assert.Equal(t, "12.30", fromNumber.Amount.String())

	var bad payload
	require.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &bad))
}

func TestValueScan(t *testing.T) {
	v, err := MustParse("3.456").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.46", v)

	var a Amount
	require.NoError(t, a.Scan("19.99"))
	assert.True(t, a.Decimal().Equal(decimal.RequireFromString("19.99")))

	require.NoError(t, a.Scan([]byte("0.50")))
	assert.Equal(t, "0.50", a.String())
}
