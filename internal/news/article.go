// Package news holds the mock article dataset and the query functions every
// rendering mode reads from.
package news

import "time"

// Category is one of the fixed article categories.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryFinance       Category = "finance"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategorySociety       Category = "society"
)

// Categories lists the enumeration in round-robin assignment order.
var Categories = []Category{
	CategoryTechnology,
	CategoryFinance,
	CategorySports,
	CategoryEntertainment,
	CategorySociety,
}

// Article is a single mock news article.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    Category  `json:"category"`
	Views       int       `json:"views"`
}
