package extract

import (
	"encoding/json"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

// fromStructuredMarkup harvests the highest-confidence evidence source:
// JSON-LD product markup. Each script body is parsed independently; a block
// that fails to parse is skipped, never fatal. The payload may be a single
// object or an array of objects.
func fromStructuredMarkup(page *domain.RenderedPage) evidence {
	var ev evidence

	for _, body := range page.JSONLD {
		var raw any
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			continue
		}
		for _, block := range jsonLDBlocks(raw) {
			harvestProductBlock(block, &ev)
		}
	}

	return ev
}

// jsonLDBlocks flattens a JSON-LD payload into its top-level object blocks.
func jsonLDBlocks(raw any) []map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		blocks := make([]map[string]any, 0, len(v))
		for _, el := range v {
			if obj, ok := el.(map[string]any); ok {
				blocks = append(blocks, obj)
			}
		}
		return blocks
	default:
		return nil
	}
}

// harvestProductBlock fills still-unset evidence fields from one Product
// block. Non-product blocks (breadcrumbs, organization) are ignored.
func harvestProductBlock(block map[string]any, ev *evidence) {
	if !isProductBlock(block) {
		return
	}

	if ev.title == nil {
		ev.title = nonEmptyString(block["name"])
	}

	offer := offerObject(block)
	if offer == nil {
		return
	}

	if ev.availability == nil {
		ev.availability = nonEmptyString(offer["availability"])
	}
	if ev.price == nil {
		// Preference order: price, then lowPrice, then highPrice.
		for _, key := range []string{"price", "lowPrice", "highPrice"} {
			if p := parsePrice(offer[key]); p != nil {
				ev.price = p
				break
			}
		}
	}
}

// isProductBlock checks the @type tag, which may be a string or an array of
// strings.
func isProductBlock(block map[string]any) bool {
	switch t := block["@type"].(type) {
	case string:
		return t == "Product"
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

// offerObject returns the offer sub-object of a Product block. Both the
// "offers" and "aggregateOffer" spellings occur in the wild, and either may
// hold an object or an array of offers (first one wins).
func offerObject(block map[string]any) map[string]any {
	for _, key := range []string{"offers", "aggregateOffer"} {
		switch v := block[key].(type) {
		case map[string]any:
			return v
		case []any:
			for _, el := range v {
				if obj, ok := el.(map[string]any); ok {
					return obj
				}
			}
		}
	}
	return nil
}
