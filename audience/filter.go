package audience

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"videoreach/types"
)

// predicates maps each category to its demographic filter. The mapping is
// total over the declared categories; anything else is
// ErrUnsupportedCategory.
var predicates = map[Category]func(types.AudienceRow) bool{
	CategoryHomeLoan:        func(r types.AudienceRow) bool { return r.Housing == "no" },
	CategoryCarLoan:         func(r types.AudienceRow) bool { return !r.Has4Wheeler },
	CategoryPersonalLoan:    func(r types.AudienceRow) bool { return r.Balance < 50000 },
	CategoryHealthInsurance: func(r types.AudienceRow) bool { return r.Age > 40 },
	CategoryLifeInsurance:   func(r types.AudienceRow) bool { return r.Marital == "married" },
}

// LoadDataset reads the audience CSV into rows.
func LoadDataset(path string) ([]types.AudienceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var rows []types.AudienceRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return rows, nil
}

// Target filters the dataset by the category's predicate, keeps rows whose
// top-visited site matches a category keyword, and ranks survivors by time
// spent, descending. The sort is stable: equal scores keep dataset order.
// Deterministic for identical inputs.
func Target(category Category, rows []types.AudienceRow) ([]types.AudienceRow, error) {
	predicate, ok := predicates[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCategory, category)
	}
	keywords := categoryKeywords[category]

	var out []types.AudienceRow
	for _, row := range rows {
		if !predicate(row) {
			continue
		}
		if !siteMatches(row.TopSite, keywords) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeSpent > out[j].TimeSpent
	})
	return out, nil
}

// WriteTargetList persists the ranked subset as the campaign's target list.
func WriteTargetList(path string, rows []types.AudienceRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create target list: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write target list: %w", err)
	}
	return nil
}

func siteMatches(site string, keywords []string) bool {
	lower := strings.ToLower(site)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
