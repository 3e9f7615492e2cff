package products

import (
	"sort"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Catalog lists the distinct browse facets present in the product table.
type Catalog struct {
	Categories    []string        `json:"categories"`
	SubCategories []SubCategory   `json:"subCategories"`
	Brands        []CategoryBrand `json:"brands"`
	Filters       []CatalogFilter `json:"filters"`
}

type SubCategory struct {
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

type CategoryBrand struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
}

// CatalogFilter is the union of values seen for one filter name within a category.
type CatalogFilter struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Values   []string `json:"values"`
}

// BuildFilterCatalog folds product rows into sorted, de-duplicated facets.
func BuildFilterCatalog(rows []models.Product) Catalog {
	categories := map[string]struct{}{}
	subs := map[SubCategory]struct{}{}
	brands := map[CategoryBrand]struct{}{}
	type filterKey struct{ category, name string }
	filterValues := map[filterKey]map[string]struct{}{}

	for _, p := range rows {
		category := string(p.Category)
		categories[category] = struct{}{}
		if p.SubCategory != "" {
			subs[SubCategory{Category: category, SubCategory: p.SubCategory}] = struct{}{}
		}
		if p.Brand != "" {
			brands[CategoryBrand{Category: category, Brand: p.Brand}] = struct{}{}
		}
		for _, f := range p.Filters {
			key := filterKey{category: category, name: f.Name}
			set, ok := filterValues[key]
			if !ok {
				set = map[string]struct{}{}
				filterValues[key] = set
			}
			for _, v := range f.Values {
				set[v] = struct{}{}
			}
		}
	}

	out := Catalog{
		Categories:    sortedKeys(categories),
		SubCategories: make([]SubCategory, 0, len(subs)),
		Brands:        make([]CategoryBrand, 0, len(brands)),
		Filters:       make([]CatalogFilter, 0, len(filterValues)),
	}
	for s := range subs {
		out.SubCategories = append(out.SubCategories, s)
	}
	sort.Slice(out.SubCategories, func(i, j int) bool {
		a, b := out.SubCategories[i], out.SubCategories[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.SubCategory < b.SubCategory
	})
	for b := range brands {
		out.Brands = append(out.Brands, b)
	}
	sort.Slice(out.Brands, func(i, j int) bool {
		a, b := out.Brands[i], out.Brands[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Brand < b.Brand
	})
	for key, set := range filterValues {
		out.Filters = append(out.Filters, CatalogFilter{Category: key.category, Name: key.name, Values: sortedKeys(set)})
	}
	sort.Slice(out.Filters, func(i, j int) bool {
		a, b := out.Filters[i], out.Filters[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Name < b.Name
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
