package format

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrencyFallbacks(t *testing.T) {
	var nilAmount *float64
	require.Equal(t, "₱0", Currency(nil))
	require.Equal(t, "₱0", Currency(nilAmount))
	require.Equal(t, "₱0", Currency(math.NaN()))
	require.Equal(t, "₱0", Currency("not a number"))
	require.Equal(t, "₱0", Currency(""))
}

func TestCurrencyGroupsThousands(t *testing.T) {
	require.Equal(t, "₱11,200.00", Currency(11200.0))
	require.Equal(t, "₱5,600.00", Currency(5600))
	require.Equal(t, "₱1,234,567.89", Currency("1234567.89"))
	require.Equal(t, "₱2,500.00", Currency(json.Number("2500")))
	require.Equal(t, "-₱500.00", Currency(-500.0))
}

func TestNumber(t *testing.T) {
	require.Equal(t, "0", Number(nil))
	require.Equal(t, "0", Number(math.Inf(1)))
	require.Equal(t, "10,000", Number(10000))
	require.Equal(t, "1,234.5", Number(1234.5))
	require.Equal(t, "0.13", Number(0.126))
	require.Equal(t, "11,200.00", Amount(11200))
	require.Equal(t, "0.00", Amount(nil))
}

func TestPercent(t *testing.T) {
	require.Equal(t, "12%", Percent(0.12))
	require.Equal(t, "50%", Percent(0.5))
	require.Equal(t, "0%", Percent(math.NaN()))
}
