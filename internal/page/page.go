// Package page parses a captured HTML document into the RenderedPage view
// consumed by the extraction engine. It isolates all DOM querying so the
// extractor itself never touches HTML.
package page

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// Well-known ids under which sites expose their hydration payload.
var hydrationSelectors = []string{
	`script#__NEXT_DATA__`,
	`script#__INITIAL_STATE__`,
}

// Likely price-container elements, most specific first.
var priceSelectors = []string{
	`[data-test="price"]`,
	`[data-test="priceBlockPrice"]`,
	`.promo-price`,
	`.price-block__highlight`,
	`[class*="price"]`,
}

// Buy / add-to-cart controls.
var buySelectors = []string{
	`[data-test="add-to-basket"]`,
	`[data-test="buy-block-button"]`,
	`button[class*="add-to-cart"]`,
	`button[class*="buy"]`,
}

// Out-of-stock message patterns in the source locale.
var outOfStockRe = regexp.MustCompile(`(?i)tijdelijk uitverkocht|uitverkocht|niet leverbaar|niet beschikbaar`)

var collapseWhitespaceRe = regexp.MustCompile(`\s+`)

// maxPriceContainers bounds how many price-container texts are handed to
// the extractor.
const maxPriceContainers = 8

// Parse builds a RenderedPage from the final HTML of one navigation.
func Parse(html, finalURL string) (*domain.RenderedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	p := &domain.RenderedPage{
		FinalURL:      finalURL,
		DocumentTitle: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	collectScripts(doc, p)
	collectSignals(doc, p)

	return p, nil
}

func collectScripts(doc *goquery.Document, p *domain.RenderedPage) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body != "" {
			p.JSONLD = append(p.JSONLD, body)
		}
	})

	for _, sel := range hydrationSelectors {
		if body := strings.TrimSpace(doc.Find(sel).First().Text()); body != "" {
			p.HydrationJSON = body
			break
		}
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, hasSrc := s.Attr("src"); hasSrc {
			return
		}
		typ, _ := s.Attr("type")
		if typ == "application/ld+json" {
			return
		}
		body := s.Text()
		if strings.TrimSpace(body) == "" {
			return
		}
		p.Scripts = append(p.Scripts, domain.ScriptBlock{Type: typ, Body: body})
	})
}

func collectSignals(doc *goquery.Document, p *domain.RenderedPage) {
	for _, sel := range buySelectors {
		if doc.Find(sel).Length() > 0 {
			p.HasBuyControl = true
			break
		}
	}

	for _, sel := range priceSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := collapse(s.Text())
			if text != "" {
				p.PriceTexts = append(p.PriceTexts, text)
			}
			return len(p.PriceTexts) < maxPriceContainers
		})
		if len(p.PriceTexts) >= maxPriceContainers {
			break
		}
	}

	p.BodyText = collapse(doc.Find("body").Text())
	p.HasOutOfStockText = outOfStockRe.MatchString(p.BodyText)
}

func collapse(s string) string {
	return strings.TrimSpace(collapseWhitespaceRe.ReplaceAllString(s, " "))
}
