package repl

import (
	"strings"

	"github.com/orsinium-labs/enum"
)

// queryType represents the type of a given SQLite query.
type queryType enum.Member[string]

var (
	queryTypeRead     = queryType{Value: "read"}
	queryTypeWrite    = queryType{Value: "write"}
	queryTypeBegin    = queryType{Value: "begin"}
	queryTypeCommit   = queryType{Value: "commit"}
	queryTypeRollback = queryType{Value: "rollback"}

	queryTypes = enum.New(
		queryTypeRead, queryTypeWrite, queryTypeBegin, queryTypeCommit, queryTypeRollback,
	)
)

// writeKeywords turn a WITH statement into a write.
var writeKeywords = []string{"insert", "update", "delete", "replace"}

// detectQueryType detects the type of query between read, write, begin,
// commit, and rollback from its leading keyword.
func detectQueryType(query string) queryType {
	trimmed := strings.ToLower(stripLeadingComments(query))
	keyword, rest, _ := strings.Cut(trimmed, " ")
	keyword = strings.TrimRight(keyword, ";")

	switch keyword {
	case "begin":
		return queryTypeBegin
	case "commit", "end":
		return queryTypeCommit
	case "rollback":
		// ROLLBACK TO a savepoint keeps the transaction open.
		if strings.HasPrefix(strings.TrimSpace(rest), "to") {
			return queryTypeWrite
		}
		return queryTypeRollback
	case "select", "values", "explain":
		return queryTypeRead
	case "pragma":
		if strings.Contains(rest, "=") {
			return queryTypeWrite
		}
		return queryTypeRead
	case "with":
		for _, word := range strings.Fields(rest) {
			for _, kw := range writeKeywords {
				if word == kw {
					return queryTypeWrite
				}
			}
		}
		return queryTypeRead
	}

	return queryTypeWrite
}

// stripLeadingComments removes whitespace, "--" line comments and "/* */"
// block comments before the first keyword.
func stripLeadingComments(query string) string {
	for {
		query = strings.TrimSpace(query)

		switch {
		case strings.HasPrefix(query, "--"):
			_, after, found := strings.Cut(query, "\n")
			if !found {
				return ""
			}
			query = after
		case strings.HasPrefix(query, "/*"):
			_, after, found := strings.Cut(query, "*/")
			if !found {
				return ""
			}
			query = after
		default:
			query = strings.ReplaceAll(query, "\n", " ")
			return strings.ReplaceAll(query, "\t", " ")
		}
	}
}
