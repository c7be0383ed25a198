package database

import (
	"strings"
)

// QueryBuilder rewrites queries written with ? placeholders for a dialect.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts ? placeholders to the dialect's form. Question marks inside
// single-quoted literals are left alone.
//
//	input:    "UPDATE players SET gold = ? WHERE user_id = ?"
//	Postgres: "UPDATE players SET gold = $1 WHERE user_id = $2"
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(2) == "?" {
		return query
	}

	var result strings.Builder
	result.Grow(len(query) + 8)
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			result.WriteByte(c)
		case c == '?' && !quoted:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(c)
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect needs one to
// report the inserted id.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
