package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lmoreno/microhunt/internal/model"
)

func TestExtractTickers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare uppercase words with noise filtered",
			text: "THE BEST STOCK TODAY: GHSI AND ALSO TTOO",
			want: []string{"GHSI", "TTOO"},
		},
		{
			name: "regional suffix preserved",
			text: "AFC.L is breaking out alongside VUL.AX",
			want: []string{"AFC.L", "VUL.AX"},
		},
		{
			name: "deduplicates preserving discovery order",
			text: "RCAT up big. RCAT again, then SOPA.",
			want: []string{"RCAT", "SOPA"},
		},
		{
			name: "lowercase text is uppercased before matching",
			text: "ghsi, ttoo",
			want: []string{"GHSI", "TTOO"},
		},
		{
			name: "nothing plausible",
			text: "the and for are not you",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTickers(tt.text))
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	// Pence-quoted symbols report 1500 for a £15.00 share.
	assert.InDelta(t, 15.00, NormalizePrice(1500, "GAW.L", "GBp"), 1e-9)
	assert.InDelta(t, 15.00, NormalizePrice(1500, "GAW.L", "USD"), 1e-9)
	assert.InDelta(t, 15.00, NormalizePrice(1500, "GAW", "GBX"), 1e-9)
	assert.InDelta(t, 1500.0, NormalizePrice(1500, "BRK", "USD"), 1e-9)
}

type suffixMarket struct {
	caps map[string]float64
}

func (m *suffixMarket) GetAttributes(_ context.Context, symbol string) (*model.Candidate, error) {
	cap, ok := m.caps[symbol]
	if !ok {
		return &model.Candidate{Symbol: symbol}, nil
	}
	return &model.Candidate{Symbol: symbol, MarketCap: cap}, nil
}

func TestResolveSuffix(t *testing.T) {
	ctx := context.Background()

	t.Run("picks first suffix with positive market cap", func(t *testing.T) {
		market := &suffixMarket{caps: map[string]float64{"NCI.V": 25_000_000}}
		assert.Equal(t, "NCI.V", ResolveSuffix(ctx, market, "NCI", "Canada"))
	})

	t.Run("priority order wins when both resolve", func(t *testing.T) {
		market := &suffixMarket{caps: map[string]float64{
			"NCI.TO": 25_000_000,
			"NCI.V":  25_000_000,
		}}
		assert.Equal(t, "NCI.TO", ResolveSuffix(ctx, market, "NCI", "Canada"))
	})

	t.Run("keeps raw symbol when nothing resolves", func(t *testing.T) {
		market := &suffixMarket{}
		assert.Equal(t, "ZZZZ", ResolveSuffix(ctx, market, "ZZZZ", "UK"))
	})

	t.Run("USA symbols pass through", func(t *testing.T) {
		market := &suffixMarket{}
		assert.Equal(t, "GHSI", ResolveSuffix(ctx, market, "GHSI", "USA"))
	})

	t.Run("existing suffix untouched", func(t *testing.T) {
		market := &suffixMarket{}
		assert.Equal(t, "AFC.L", ResolveSuffix(ctx, market, "AFC.L", "UK"))
	})
}
