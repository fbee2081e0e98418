package search

import (
	"strings"

	"memo-app/src/domain"
)

// Filter returns the memos whose content contains query, ignoring case.
// Order is preserved and an empty query returns every memo.
func Filter(memos []domain.Memo, query string) []domain.Memo {
	if query == "" {
		return domain.CloneMemos(memos)
	}

	result := make([]domain.Memo, 0, len(memos))
	for _, m := range memos {
		if Matches(m, query) {
			result = append(result, m)
		}
	}
	return result
}

// Matches reports whether a single memo passes Filter for query
func Matches(memo domain.Memo, query string) bool {
	return strings.Contains(strings.ToLower(memo.Content), strings.ToLower(query))
}
