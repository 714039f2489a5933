package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintPrices_Text(t *testing.T) {
	t.Parallel()

	price := 560.27
	var buf bytes.Buffer
	err := printPrices(&buf, []priceLine{
		{Feed: "alpha_vantage", Pair: "MSTRUSD", Instant: "2024-01-03T12:00:00Z", Price: &price},
		{Feed: "coingecko", Pair: "MSTRUSD", Instant: "2024-01-03T12:00:00Z", Kind: "unsupported_pair", Error: "nope"},
	}, false)

	require.NoError(t, err)
	require.Equal(t,
		"alpha_vantage  MSTRUSD  2024-01-03T12:00:00Z 560.27\n"+
			"coingecko      MSTRUSD  2024-01-03T12:00:00Z error (unsupported_pair): nope\n",
		buf.String())
}

func TestPrintPrices_JSONKeepsFullPrecision(t *testing.T) {
	t.Parallel()

	price := math.Nextafter(614.56, 700)
	var buf bytes.Buffer
	require.NoError(t, printPrices(&buf, []priceLine{{Feed: "a", Pair: "MSTRUSD", Instant: "x", Price: &price}}, true))
	require.Contains(t, buf.String(), `"price":614.5600000000001`)
}
