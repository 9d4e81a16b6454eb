package store

import (
	sq "github.com/Masterminds/squirrel"
)

// psql is the statement builder for every query in this package.
func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
