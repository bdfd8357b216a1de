package yahoo

import (
	"errors"
	"testing"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrice(t *testing.T) {
	p := &Provider{get: func(symbol string) (*finance.Quote, error) {
		return &finance.Quote{Symbol: symbol, RegularMarketPrice: 2.35}, nil
	}}

	price, err := p.GetPrice("ABCD")
	require.NoError(t, err)
	assert.Equal(t, "2.35", price.String())
}

func TestGetPrice_Errors(t *testing.T) {
	p := &Provider{get: func(string) (*finance.Quote, error) { return nil, nil }}
	_, err := p.GetPrice("NONE")
	assert.ErrorContains(t, err, "no quote found")

	boom := errors.New("boom")
	p = &Provider{get: func(string) (*finance.Quote, error) { return nil, boom }}
	_, err = p.GetPrice("ABCD")
	assert.ErrorIs(t, err, boom)
}
