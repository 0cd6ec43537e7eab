package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSteamPrice(t *testing.T) {
	cases := []struct {
		raw      string
		rate     float64
		expected float64
	}{
		{raw: "$2.10 USD", rate: 7.1, expected: 14.91},
		{raw: "$10 USD", rate: 7.0, expected: 70},
		{raw: "$ 0.35", rate: 7.2, expected: 2.52},
		{raw: "$1,234.56 USD", rate: 7, expected: 8641.92},
		{raw: "$12,000 USD", rate: 7.1, expected: 85200},
		{raw: "$1.00 usd", rate: 7.11471843, expected: 7.11},
		{raw: "¥ 12.34", rate: 7.1, expected: 12.34},
		{raw: "¥1,234.56", rate: 0, expected: 1234.56},
		{raw: "¥ 1,234,567", rate: 0, expected: 1234567},
		{raw: "12,34 pуб.", rate: 0, expected: 12.34},
		{raw: "1.234,56€", rate: 0, expected: 1.23456},
		// no rate: the dollar amount is read as CNY
		{raw: "$2.10 USD", rate: 0, expected: 2.10},
	}

	for _, test := range cases {
		t.Run(test.raw, func(t *testing.T) {
			v, err := ParseSteamPrice(test.raw, test.rate)
			require.NoError(t, err)
			require.InDelta(t, test.expected, v, 1e-9)
		})
	}
}

func TestParseSteamPriceInvalid(t *testing.T) {
	for _, raw := range []string{"", "Sold out", "--", "1-2-3"} {
		_, err := ParseSteamPrice(raw, 7.1)
		require.Error(t, err, raw)
	}
}

func TestRatio(t *testing.T) {
	require.Equal(t, 1.1765, Ratio(100, 100))
	require.Equal(t, 1.0084, Ratio(60, 70))
	require.Equal(t, 0.5, Ratio(42.5, 100))
}

func TestRound(t *testing.T) {
	require.Equal(t, 14.91, Round(2.10*7.1, 2))
	require.Equal(t, 0.1235, Round(0.12346, 4))
	require.Equal(t, 3.0, Round(2.999, 2))
}
