package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering of a filtered product list.
type SortKey string

const (
	// SortRelevance preserves catalog order. The storefront does not compute
	// a relevance score; catalog order is the defined relevance order.
	SortRelevance SortKey = "relevance"
	// SortNewest also preserves catalog order, which the feed keeps
	// newest-first.
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	// SortRatingDesc orders by rating, highest first. Equal ratings keep
	// their relative catalog order.
	SortRatingDesc SortKey = "rating-desc"
)

// InvalidSortError indicates an unrecognized sort key. Unknown keys fail
// explicitly instead of silently falling back to catalog order.
type InvalidSortError struct {
	Key SortKey
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("invalid sort key %q", e.Key)
}

// FilterState holds every filter dimension plus the sort key. Empty
// category and brand sets pass all products; an empty query passes all
// products.
type FilterState struct {
	PriceMin   decimal.Decimal
	PriceMax   decimal.Decimal
	Categories []string
	Brands     []string
	Query      string
	Sort       SortKey
}

// DefaultFilter returns a FilterState that passes every product in catalog
// order, with a wide-open price range.
func DefaultFilter(priceMax decimal.Decimal) FilterState {
	return FilterState{
		PriceMax: priceMax,
		Sort:     SortRelevance,
	}
}

// ApplyFilters returns products matching every filter dimension, ordered by
// the sort key. The input slice is never mutated and the same inputs always
// yield the same output.
func ApplyFilters(products []Product, f FilterState) ([]Product, error) {
	if !validSortKey(f.Sort) {
		return nil, &InvalidSortError{Key: f.Sort}
	}

	categories := toSet(f.Categories)
	brands := toSet(f.Brands)
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Price.LessThan(f.PriceMin) || p.Price.GreaterThan(f.PriceMax) {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[p.Category]; !ok {
				continue
			}
		}
		if len(brands) > 0 {
			if _, ok := brands[p.Brand]; !ok {
				continue
			}
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)
	return out, nil
}

// matchesQuery reports whether the query is a case-insensitive substring of
// the product name or category.
func matchesQuery(p Product, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Category), lowerQuery)
}

func sortProducts(products []Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortRatingDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case SortRelevance, SortNewest:
		// Catalog order, no reordering.
	}
}

func validSortKey(key SortKey) bool {
	switch key {
	case SortRelevance, SortNewest, SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return true
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
