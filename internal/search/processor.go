package search

import "strings"

// ProcessQuery collapses runs of whitespace so both retrievers see the same text.
func ProcessQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
