package repository

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the fixed number of products per listing page.
const PageSize = 8

// ListQuery is the parsed form of the listing/search query parameters.
type ListQuery struct {
	Page       int
	Search     string
	Categories []string
	// Terms are OR-matched against title or category (the search endpoint).
	Terms []string
}

// ParsePage returns the 1-based page number; anything unparsable or < 1 is page 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// SplitList splits a comma-separated parameter, trimming whitespace and
// dropping empty entries.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewListQuery builds a ListQuery from the raw page, search and category parameters.
func NewListQuery(page, search, category string) ListQuery {
	return ListQuery{
		Page:       ParsePage(page),
		Search:     strings.TrimSpace(search),
		Categories: SplitList(category),
	}
}

// Skip is the number of documents before the requested page.
func (q ListQuery) Skip() int64 {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return int64(page-1) * PageSize
}

// containsFold matches s anywhere in the field, case-insensitively, with
// regexp metacharacters taken literally.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// Filter returns the store filter for q. An empty query yields an empty
// document (match everything).
func (q ListQuery) Filter() bson.M {
	filter := bson.M{}

	if len(q.Categories) > 0 {
		filter["category"] = bson.M{"$in": q.Categories}
	}
	if q.Search != "" {
		filter["title"] = bson.M{"$regex": containsFold(q.Search)}
	}
	if len(q.Terms) > 0 {
		or := make(bson.A, 0, len(q.Terms)*2)
		for _, term := range q.Terms {
			re := containsFold(term)
			or = append(or,
				bson.M{"title": bson.M{"$regex": re}},
				bson.M{"category": bson.M{"$regex": re}},
			)
		}
		filter["$or"] = or
	}

	return filter
}

// TotalPages is ceil(total / PageSize).
func TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + PageSize - 1) / PageSize)
}
