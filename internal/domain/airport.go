package domain

import "strings"

type Airport struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Matches reports whether q is a case-insensitive substring of the code, name or city.
func (a Airport) Matches(q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(a.Code), q) ||
		strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.City), q)
}
