package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

func TestExtract_EmptyPage(t *testing.T) {
	t.Parallel()

	snap := Extract(&domain.RenderedPage{})

	assert.Equal(t, domain.StatusUnknown, snap.Status)
	assert.Nil(t, snap.Price)
	assert.Nil(t, snap.Title)
	assert.Nil(t, snap.StockHint)
}

func TestExtract_NilPage(t *testing.T) {
	t.Parallel()

	snap := Extract(nil)
	assert.Equal(t, domain.StatusUnknown, snap.Status)
}

func TestExtract_DocumentTitleFallback(t *testing.T) {
	t.Parallel()

	snap := Extract(&domain.RenderedPage{DocumentTitle: "LEGO 42143 | bol"})

	require.NotNil(t, snap.Title)
	assert.Equal(t, "LEGO 42143 | bol", *snap.Title)
	assert.Equal(t, domain.StatusUnknown, snap.Status)
}

func TestExtract_JSONLDProduct(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		JSONLD: []string{
			`{"@type":"Product","name":"LEGO Ferrari Daytona","offers":{"availability":"https://schema.org/InStock","price":"379,99"}}`,
		},
	}

	snap := Extract(page)

	assert.Equal(t, domain.StatusInStock, snap.Status)
	require.NotNil(t, snap.Price)
	assert.InDelta(t, 379.99, *snap.Price, 0.001)
	require.NotNil(t, snap.Title)
	assert.Equal(t, "LEGO Ferrari Daytona", *snap.Title)
}

func TestExtract_JSONLDArrayPayload(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		JSONLD: []string{
			`[{"@type":"BreadcrumbList"},{"@type":"Product","name":"PS5 Controller","offers":{"availability":"OutOfStock","price":64.99}}]`,
		},
	}

	snap := Extract(page)

	assert.Equal(t, domain.StatusOutOfStock, snap.Status)
	require.NotNil(t, snap.Price)
	assert.InDelta(t, 64.99, *snap.Price, 0.001)
}

func TestExtract_JSONLDOfferPricePreference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		offer string
		want  float64
	}{
		{
			name:  "price wins over lowPrice and highPrice",
			offer: `{"price":"10,00","lowPrice":"8,00","highPrice":"12,00"}`,
			want:  10.00,
		},
		{
			name:  "lowPrice wins over highPrice",
			offer: `{"lowPrice":"8,00","highPrice":"12,00"}`,
			want:  8.00,
		},
		{
			name:  "highPrice as last resort",
			offer: `{"highPrice":"12,00"}`,
			want:  12.00,
		},
		{
			name:  "malformed price falls through to lowPrice",
			offer: `{"price":"n/a","lowPrice":"8,00"}`,
			want:  8.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := &domain.RenderedPage{
				JSONLD: []string{`{"@type":"Product","offers":` + tt.offer + `}`},
			}
			snap := Extract(page)
			require.NotNil(t, snap.Price)
			assert.InDelta(t, tt.want, *snap.Price, 0.001)
		})
	}
}

func TestExtract_JSONLDAggregateOfferSpelling(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		JSONLD: []string{
			`{"@type":"Product","aggregateOffer":{"availability":"InStock","lowPrice":"24,95"}}`,
		},
	}

	snap := Extract(page)
	assert.Equal(t, domain.StatusInStock, snap.Status)
	require.NotNil(t, snap.Price)
	assert.InDelta(t, 24.95, *snap.Price, 0.001)
}

func TestExtract_MalformedJSONLDBlockSkipped(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		JSONLD: []string{
			`{not json at all`,
			`{"@type":"Product","name":"Still Found","offers":{"availability":"InStock"}}`,
		},
	}

	snap := Extract(page)

	assert.Equal(t, domain.StatusInStock, snap.Status)
	require.NotNil(t, snap.Title)
	assert.Equal(t, "Still Found", *snap.Title)
}

func TestExtract_PriorityLaw_JSONLDNeverOverwritten(t *testing.T) {
	t.Parallel()

	// JSON-LD says 10.00; the embedded payload says 12.00 and carries a
	// different title. The higher-priority source must win on price, and
	// the embedded source must still fill the unset title.
	page := &domain.RenderedPage{
		JSONLD: []string{
			`{"@type":"Product","offers":{"price":"10,00"}}`,
		},
		HydrationJSON: `{"product":{"title":"Hydrated Name","sellingPrice":"12,00"}}`,
	}

	snap := Extract(page)

	require.NotNil(t, snap.Price)
	assert.InDelta(t, 10.00, *snap.Price, 0.001)
	require.NotNil(t, snap.Title)
	assert.Equal(t, "Hydrated Name", *snap.Title)
}

func TestExtract_DOMPriceFallback(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		PriceTexts: []string{"va.", "129,00 Adviesprijs 149,00"},
	}

	snap := Extract(page)

	require.NotNil(t, snap.Price)
	assert.InDelta(t, 129.00, *snap.Price, 0.001)
}

func TestExtract_DOMPriceThousandsSeparators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"dot thousands comma decimal", "1.299,95", 1299.95},
		{"currency prefix", "€ 1.299,95", 1299.95},
		{"comma thousands dot decimal", "1,299.95", 1299.95},
		{"no thousands separator", "1299,95", 1299.95},
		{"plain comma decimal", "19,99", 19.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := Extract(&domain.RenderedPage{PriceTexts: []string{tt.text}})

			require.NotNil(t, snap.Price)
			assert.InDelta(t, tt.want, *snap.Price, 0.001)
		})
	}
}

func TestExtract_DOMPriceDoesNotOverrideEmbedded(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		HydrationJSON: `{"offer":{"sellingPrice":49.99}}`,
		PriceTexts:    []string{"59,99"},
	}

	snap := Extract(page)

	require.NotNil(t, snap.Price)
	assert.InDelta(t, 49.99, *snap.Price, 0.001)
}

func TestExtract_LowStockPhrase(t *testing.T) {
	t.Parallel()

	page := &domain.RenderedPage{
		BodyText: "Op voorraad. Nog 3 op voorraad. Voor 23:59 besteld, morgen in huis",
	}

	snap := Extract(page)

	require.NotNil(t, snap.StockHint)
	assert.Equal(t, 3, *snap.StockHint)
}

func TestExtract_StatusFromDOMSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page domain.RenderedPage
		want domain.Status
	}{
		{
			name: "buy control implies in stock",
			page: domain.RenderedPage{HasBuyControl: true},
			want: domain.StatusInStock,
		},
		{
			name: "out of stock text implies out of stock",
			page: domain.RenderedPage{HasOutOfStockText: true},
			want: domain.StatusOutOfStock,
		},
		{
			name: "buy control wins over out of stock text",
			page: domain.RenderedPage{HasBuyControl: true, HasOutOfStockText: true},
			want: domain.StatusInStock,
		},
		{
			name: "availability string wins over DOM signals",
			page: domain.RenderedPage{
				JSONLD:        []string{`{"@type":"Product","offers":{"availability":"OutOfStock"}}`},
				HasBuyControl: true,
			},
			want: domain.StatusOutOfStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := Extract(&tt.page)
			assert.Equal(t, tt.want, snap.Status)
		})
	}
}

func TestMatchesInStock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		availability string
		want         bool
	}{
		{"https://schema.org/InStock", true},
		{"http://schema.org/InStock", true},
		{"InStock", true},
		{"IN_STOCK", true},
		{"instock", true},
		{"LimitedAvailability", true},
		{"https://schema.org/OutOfStock", false},
		{"SOLD_OUT", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesInStock(tt.availability), "availability %q", tt.availability)
	}
}

func TestMatchesOutOfStock(t *testing.T) {
	t.Parallel()

	assert.True(t, matchesOutOfStock("https://schema.org/OutOfStock"))
	assert.True(t, matchesOutOfStock("OUT_OF_STOCK"))
	assert.True(t, matchesOutOfStock("SoldOut"))
	assert.True(t, matchesOutOfStock("Discontinued"))
	assert.False(t, matchesOutOfStock("InStock"))
}
