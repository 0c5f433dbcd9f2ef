package extract

import (
	"encoding/json"
	"sort"
	"strings"

	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

const (
	// minEmbeddedJSONLen filters out small unrelated blobs during the
	// heuristic script scan. Real hydration payloads run tens of
	// kilobytes; config stubs and analytics snippets stay well under this.
	minEmbeddedJSONLen = 1800

	// maxEmbeddedCandidates bounds how many length-ranked candidates are
	// attempted before giving up on this source.
	maxEmbeddedCandidates = 3
)

// Key-name concept buckets for the deep scan. Matching is substring
// containment on the lower-cased key.
var (
	availabilityKeys = []string{"availability", "availabilitystate", "instock", "in_stock", "available", "stockstate"}
	priceKeys        = []string{"sellingprice", "currentprice", "price", "amount", "value"}
	titleKeys        = []string{"productname", "title", "name"}
	stockKeys        = []string{"quantityavailable", "remaining", "stock", "inventory", "qty", "quantity"}
)

// fromEmbeddedJSON is the second evidence source: the page's embedded
// application-state JSON. The well-known hydration blob is preferred; when
// absent, untyped or application/json scripts that look like large JSON
// documents are tried in descending length order, and the first one that
// parses is scanned.
func fromEmbeddedJSON(page *domain.RenderedPage) evidence {
	var ev evidence

	doc := embeddedDocument(page)
	if doc == nil {
		return ev
	}

	found := deepScan(doc)

	if v, ok := found["availability"]; ok {
		ev.availability = nonEmptyString(v)
		// Some payloads carry availability as a bare boolean.
		if ev.availability == nil {
			if b, isBool := v.(bool); isBool {
				s := "OutOfStock"
				if b {
					s = "InStock"
				}
				ev.availability = &s
			}
		}
	}
	if v, ok := found["price"]; ok {
		ev.price = parsePrice(v)
	}
	if v, ok := found["title"]; ok {
		ev.title = nonEmptyString(v)
	}
	if v, ok := found["stock"]; ok {
		ev.stockHint = parseStockCount(v)
	}

	return ev
}

// embeddedDocument picks and parses the best embedded JSON candidate, or
// returns nil when the page has none.
func embeddedDocument(page *domain.RenderedPage) any {
	if page.HydrationJSON != "" {
		var doc any
		if err := json.Unmarshal([]byte(page.HydrationJSON), &doc); err == nil {
			return doc
		}
	}

	candidates := make([]string, 0, len(page.Scripts))
	for _, s := range page.Scripts {
		if s.Type != "" && s.Type != "application/json" {
			continue
		}
		body := strings.TrimSpace(s.Body)
		if len(body) < minEmbeddedJSONLen || !strings.HasPrefix(body, "{") {
			continue
		}
		candidates = append(candidates, body)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})

	limit := min(len(candidates), maxEmbeddedCandidates)
	for _, body := range candidates[:limit] {
		var doc any
		if err := json.Unmarshal([]byte(body), &doc); err == nil {
			return doc
		}
	}
	return nil
}

// deepScan walks the document breadth-first and records the first value
// whose key matches each concept bucket. Breadth-first order with keys
// sorted at every level makes "first match" deterministic: the shallowest
// match wins, with alphabetical key order breaking ties at equal depth.
func deepScan(doc any) map[string]any {
	found := make(map[string]any, 4)

	queue := []any{doc}
	for len(queue) > 0 && len(found) < 4 {
		node := queue[0]
		queue = queue[1:]

		switch v := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				recordMatch(k, v[k], found)
			}
			for _, k := range keys {
				queue = append(queue, v[k])
			}
		case []any:
			queue = append(queue, v...)
		}
	}

	return found
}

// recordMatch assigns value to the bucket whose key list matches key,
// unless that bucket already holds a value. Container values never match;
// buckets hold scalars. Bucket needles overlap ("quantityavailable"
// contains "available", "instock" contains "stock"), so a key goes to the
// bucket with the longest matching needle, which is the most specific one.
func recordMatch(key string, value any, found map[string]any) {
	switch value.(type) {
	case map[string]any, []any, nil:
		return
	}

	lower := strings.ToLower(key)

	bucket, best := "", 0
	for _, b := range buckets {
		if n := longestMatch(lower, b.needles); n > best {
			bucket, best = b.name, n
		}
	}

	if bucket == "" {
		return
	}
	if _, ok := found[bucket]; !ok {
		found[bucket] = value
	}
}

// Fixed order breaks needle-length ties between buckets.
var buckets = []struct {
	name    string
	needles []string
}{
	{"availability", availabilityKeys},
	{"price", priceKeys},
	{"title", titleKeys},
	{"stock", stockKeys},
}

func longestMatch(lowerKey string, needles []string) int {
	best := 0
	for _, needle := range needles {
		if len(needle) > best && strings.Contains(lowerKey, needle) {
			best = len(needle)
		}
	}
	return best
}
