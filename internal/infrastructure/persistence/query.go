package persistence

import (
	"strings"

	"github.com/voucherdesk/backend/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a list endpoint may order by
type sortColumns struct {
	allowed  map[string]bool
	fallback string
	desc     bool // default direction when the filter names none
}

var userSort = sortColumns{
	allowed: map[string]bool{
		"created_at":   true,
		"username":     true,
		"email":        true,
		"is_superuser": true,
		"is_active":    true,
	},
	fallback: "username",
}

// orderBy turns the caller's ordering into a clause. Unknown columns fall
// back to the default and anything but "asc"/"desc" keeps the default
// direction, so user input never reaches the SQL text.
func (s sortColumns) orderBy(f shared.Filter) clause.OrderByColumn {
	col := strings.TrimSpace(f.OrderBy)
	if !s.allowed[col] {
		col = s.fallback
	}
	desc := s.desc
	switch strings.ToLower(strings.TrimSpace(f.OrderDir)) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}
}

// likePattern wraps a search term for a case-insensitive LIKE
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
