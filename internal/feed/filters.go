package feed

import "fmt"

// SortKey selects the server-side ordering of the listing.
type SortKey string

const (
	SortDate     SortKey = "date"
	SortLikes    SortKey = "likes"
	SortComments SortKey = "comments"
)

// Scope restricts the listing to a slice of the board.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeFollowed Scope = "followed"
)

// Filters is the complete query tuple for a feed. It is always replaced
// wholesale, never field by field, and two tuples compare with ==.
type Filters struct {
	Query string
	Sort  SortKey
	Scope Scope
}

// DefaultFilters is the tuple used before any user input or persisted state.
func DefaultFilters() Filters {
	return Filters{Sort: SortDate, Scope: ScopeAll}
}

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortDate, SortLikes, SortComments:
		return SortKey(s), nil
	case "":
		return SortDate, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeFollowed:
		return Scope(s), nil
	case "":
		return ScopeAll, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Next cycles date, likes, comments and back, for the sort hotkey.
func (k SortKey) Next() SortKey {
	switch k {
	case SortDate:
		return SortLikes
	case SortLikes:
		return SortComments
	default:
		return SortDate
	}
}

// Toggle flips between the two scopes.
func (s Scope) Toggle() Scope {
	if s == ScopeFollowed {
		return ScopeAll
	}
	return ScopeFollowed
}
