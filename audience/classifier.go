// Package audience classifies a narration script into a campaign category
// and selects the ranked audience subset for it from the CSV dataset.
package audience

import (
	"errors"
	"strings"
)

// Category is a campaign product category.
type Category string

const (
	CategoryHomeLoan        Category = "home_loan"
	CategoryCarLoan         Category = "car_loan"
	CategoryPersonalLoan    Category = "personal_loan"
	CategoryHealthInsurance Category = "health_insurance"
	CategoryLifeInsurance   Category = "life_insurance"
)

var (
	// ErrNoCategory means no category keyword occurs in the script at all.
	ErrNoCategory = errors.New("audience: no category keyword found in script")
	// ErrUnsupportedCategory means a category has no configured filter.
	ErrUnsupportedCategory = errors.New("audience: unsupported category")
)

// categoryOrder is the declaration order used to break count ties.
var categoryOrder = []Category{
	CategoryHomeLoan,
	CategoryCarLoan,
	CategoryPersonalLoan,
	CategoryHealthInsurance,
	CategoryLifeInsurance,
}

var categoryKeywords = map[Category][]string{
	CategoryHomeLoan:        {"home-loans", "mortgage"},
	CategoryCarLoan:         {"auto-loans", "car-loans"},
	CategoryPersonalLoan:    {"personal-loans"},
	CategoryHealthInsurance: {"health-insurance"},
	CategoryLifeInsurance:   {"life-insurance"},
}

// Classify picks the category whose keywords occur most often in the
// script, case-insensitive. Ties go to the earlier-declared category. A
// script with zero keyword occurrences yields ErrNoCategory: a campaign
// with no identifiable product is a broken campaign.
func Classify(script string) (Category, error) {
	lower := strings.ToLower(script)

	var best Category
	bestCount := 0
	for _, cat := range categoryOrder {
		count := 0
		for _, keyword := range categoryKeywords[cat] {
			count += strings.Count(lower, keyword)
		}
		if count > bestCount {
			best = cat
			bestCount = count
		}
	}

	if bestCount == 0 {
		return "", ErrNoCategory
	}
	return best, nil
}
