package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/db"
)

// queryBuilder renders the two holdings queries for a connector type.
type queryBuilder struct {
	sb sq.StatementBuilderType
}

func newQueryBuilder(driver string) queryBuilder {
	if driver == db.DriverPostgres {
		return queryBuilder{sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
	}

	return queryBuilder{sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// holdings selects the (account, value) pairs of t, skipping null and empty values.
func (q queryBuilder) holdings(t connector.Type) sq.SelectBuilder {
	b := q.sb.Select(t.AccountColumn, t.ValueColumn).
		Distinct().
		From(t.Table).
		Where(sq.NotEq{t.ValueColumn: nil}).
		Where(sq.NotEq{t.ValueColumn: ""})

	if t.TypeColumn != "" {
		b = b.Where(sq.Eq{t.TypeColumn: string(t.Name)})
	}

	return b
}

// connectors selects the values held by ids.
func (q queryBuilder) connectors(t connector.Type, ids []int64) (string, []any, error) {
	return q.holdings(t).
		Where(sq.Eq{t.AccountColumn: ids}).
		OrderBy(t.AccountColumn, t.ValueColumn).
		ToSql()
}

// connections selects the holders of values.
func (q queryBuilder) connections(t connector.Type, values []string) (string, []any, error) {
	return q.holdings(t).
		Where(sq.Eq{t.ValueColumn: values}).
		OrderBy(t.ValueColumn, t.AccountColumn).
		ToSql()
}
