package classify

import (
	"strings"

	"EditaisScanner/internal/textnorm"
)

// LocalityFilter keeps notices whose title names the target town.
type LocalityFilter struct {
	token string
}

// NewLocalityFilter normalizes the locality token once.
func NewLocalityFilter(locality string) LocalityFilter {
	return LocalityFilter{token: strings.TrimSpace(textnorm.Normalize(locality))}
}

// Matches reports whether title mentions the locality, ignoring case and accents.
func (f LocalityFilter) Matches(title string) bool {
	if f.token == "" {
		return false
	}
	return strings.Contains(textnorm.Normalize(title), f.token)
}
