package extract

import (
	"regexp"
	"strconv"
	"strings"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

var (
	// priceTokenRe matches a price-shaped token with exactly two
	// fractional digits, with either decimal separator and optional
	// thousands groups ("129.00", "19,99", "1.299,95", "1,299.95"). The
	// left boundary keeps a thousands-separated price from matching on
	// its tail only.
	priceTokenRe = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:\.\d{3})+,\d{2}|\d{1,3}(?:,\d{3})+\.\d{2}|\d+[.,]\d{2})\b`)

	// lowStockRe matches the source-locale low-remaining-inventory phrase
	// ("Nog 3 op voorraad").
	lowStockRe = regexp.MustCompile(`(?i)nog\s+(\d+)\s+op voorraad`)
)

// fromRenderedText is the lowest-priority evidence source: the rendered DOM
// itself. It contributes a price token from likely price containers, a
// low-stock count from the visible body text, and the direct status signals
// (buy control present, out-of-stock message present).
func fromRenderedText(page *domain.RenderedPage) evidence {
	ev := evidence{
		buySignal:     page.HasBuyControl,
		soldOutSignal: page.HasOutOfStockText,
	}

	for _, text := range page.PriceTexts {
		m := priceTokenRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if p := parsePrice(normalizePriceToken(m[1])); p != nil {
			ev.price = p
			break
		}
	}

	if m := lowStockRe.FindStringSubmatch(page.BodyText); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ev.stockHint = &n
		}
	}

	return ev
}

// normalizePriceToken reduces a matched price token to a dot-decimal
// string. The last separator is the decimal one; any earlier separators
// are thousands separators and are dropped.
func normalizePriceToken(token string) string {
	sep := strings.LastIndexAny(token, ".,")
	whole := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, token[:sep])
	return whole + "." + token[sep+1:]
}
