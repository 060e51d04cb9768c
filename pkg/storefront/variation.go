package storefront

import (
	"regexp"
	"strings"
)

var (
	taxonomyPrefix = regexp.MustCompile(`^pa_`)
	attrSeparators = regexp.MustCompile(`[-_]`)
)

// normalizeAttrName makes "pa_color", "Color" and "color" compare equal.
func normalizeAttrName(name string) string {
	n := strings.ToLower(name)
	n = taxonomyPrefix.ReplaceAllString(n, "")
	n = attrSeparators.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

func normalizeSelection(selected map[string]string) map[string]string {
	out := make(map[string]string, len(selected))
	for k, v := range selected {
		out[normalizeAttrName(k)] = v
	}
	return out
}

// FindMatchingVariation returns the first variation consistent with a complete
// selection. It returns nil until attributeCount attributes have a value. An
// empty variation attribute value accepts any selected value.
func FindMatchingVariation(variations []Variation, selected map[string]string, attributeCount int) *Variation {
	filled := 0
	for _, v := range selected {
		if v != "" {
			filled++
		}
	}
	if filled < attributeCount {
		return nil
	}

	norm := normalizeSelection(selected)
	for i := range variations {
		if matches(variations[i], norm, false) {
			return &variations[i]
		}
	}
	return nil
}

// IsOptionAvailable reports whether choosing value for attribute name, on top
// of the current selection, still leaves an in-stock variation. Attributes the
// shopper has not chosen yet do not constrain the answer.
func IsOptionAvailable(name, value string, selected map[string]string, variations []Variation) bool {
	hypothetical := make(map[string]string, len(selected)+1)
	for k, v := range selected {
		hypothetical[k] = v
	}
	hypothetical[name] = value
	norm := normalizeSelection(hypothetical)

	for _, v := range variations {
		if v.StockStatus == StockOutOfStock {
			continue
		}
		if matches(v, norm, true) {
			return true
		}
	}
	return false
}

func matches(v Variation, norm map[string]string, allowUnselected bool) bool {
	for _, attr := range v.Attributes.Nodes {
		want := norm[normalizeAttrName(attr.Name)]
		if want == "" {
			if allowUnselected {
				continue
			}
			return false
		}
		if attr.Value != "" && !strings.EqualFold(attr.Value, want) {
			return false
		}
	}
	return true
}
