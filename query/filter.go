// Package query turns list-endpoint query parameters into MongoDB filter and sort documents.
package query

import (
	"net/url"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sort directions accepted in sortBy.
const (
	SortAsc  = "asc"
	SortDesc = "dsc"
)

// Params holds the optional list parameters. Empty fields are absent.
type Params struct {
	Type       string
	Status     string
	SearchTerm string
	SortBy     string
}

// FromValues reads assetType (or type), status, searchTerm and sortBy.
func FromValues(v url.Values) Params {
	typ := v.Get("assetType")
	if typ == "" {
		typ = v.Get("type")
	}
	return Params{
		Type:       typ,
		Status:     v.Get("status"),
		SearchTerm: v.Get("searchTerm"),
		SortBy:     v.Get("sortBy"),
	}
}

// Spec is a filter plus an optional sort. A nil Sort means natural order.
type Spec struct {
	Filter bson.D
	Sort   bson.D
}

// Build returns base followed by the clauses implied by p. The search term is
// matched against each of searchFields, OR-ed together; every other clause is AND-ed.
func Build(base bson.D, p Params, searchFields ...string) Spec {
	filter := make(bson.D, 0, len(base)+3)
	filter = append(filter, base...)
	if p.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: p.Type})
	}
	if p.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: p.Status})
	}
	if p.SearchTerm != "" && len(searchFields) > 0 {
		alternatives := make(bson.A, 0, len(searchFields))
		for _, field := range searchFields {
			alternatives = append(alternatives, bson.D{{Key: field, Value: Contains(p.SearchTerm)}})
		}
		filter = append(filter, bson.E{Key: "$or", Value: alternatives})
	}
	return Spec{Filter: filter, Sort: quantitySort(p.SortBy)}
}

// Contains is a case-insensitive, unanchored match of term taken literally.
func Contains(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

func quantitySort(sortBy string) bson.D {
	switch sortBy {
	case SortAsc:
		return bson.D{{Key: "quantity", Value: 1}}
	case SortDesc:
		return bson.D{{Key: "quantity", Value: -1}}
	}
	return nil
}
