// Package waste maps raw classifier labels onto disposal categories.
package waste

import "strings"

type Category string

const (
	BioDegradable Category = "bio-degradable"
	Plastic       Category = "plastic"
	EWaste        Category = "e-waste"
	Hazardous     Category = "hazardous"
	Other         Category = "other"
)

// HazardousThreshold is the confidence below which a prediction is not
// trusted and the item is treated as hazardous.
const HazardousThreshold = 0.24

// Rule assigns Category to labels containing any of Keywords.
type Rule struct {
	Category Category
	Keywords []string
}

// Rules are evaluated in order; the first match wins.
var Rules = []Rule{
	{Category: BioDegradable, Keywords: []string{"paper", "cardboard", "biological"}},
	{Category: Plastic, Keywords: []string{"plastic"}},
	{Category: EWaste, Keywords: []string{"battery"}},
	{Category: Other, Keywords: []string{"metal", "glass", "trash", "clothes"}},
}

// Categorize resolves the waste category for a predicted label.
func Categorize(label string, confidence float64) Category {
	if confidence < HazardousThreshold {
		return Hazardous
	}

	lower := strings.ToLower(label)
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return Other
}
