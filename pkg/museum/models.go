package museum

import "museumscraper/pkg/models"

// CatalogueQuery is the body of a search-entities request
type CatalogueQuery struct {
	Count   int                 `json:"count"`
	Filters map[string][]string `json:"filters"`
	Query   *string             `json:"query"`
	Sort    string              `json:"sort"`
	Start   int                 `json:"start"`
}

// NewFundQuery builds a query filtered on the given funds
func NewFundQuery(funds []string, sort string, count, start int) CatalogueQuery {
	return CatalogueQuery{
		Count:   count,
		Filters: map[string][]string{"fund": funds},
		Sort:    sort,
		Start:   start,
	}
}

// SearchResponse is the search-entities response; only ids are used
type SearchResponse struct {
	Data []SearchHit `json:"data"`
}

// SearchHit is one catalogue entry
type SearchHit struct {
	ID models.ObjectID `json:"id"`
}

// Entity is the detail payload of one object
type Entity struct {
	Image *string                 `json:"image"`
	Data  []models.AttributeEntry `json:"data"`
}
