package extract

import (
	"strconv"
	"strings"
)

// parsePrice converts a price value from structured or embedded data to a
// number. Source-locale strings use a comma decimal separator ("19,99"), so
// commas are normalized to dots before conversion. Values that do not
// convert cleanly are discarded (nil), never coerced to zero.
func parsePrice(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return nil
		}
		return &n
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// parseStockCount converts a remaining-stock value to an int. String values
// are reduced to their digits first ("nog 3 stuks" -> 3).
func parseStockCount(v any) *int {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(int(n)) {
			return nil
		}
		i := int(n)
		return &i
	case string:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, n)
		if digits == "" {
			return nil
		}
		i, err := strconv.Atoi(digits)
		if err != nil {
			return nil
		}
		return &i
	default:
		return nil
	}
}

// nonEmptyString returns a pointer to the trimmed string value, or nil when
// v is not a usable string.
func nonEmptyString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
