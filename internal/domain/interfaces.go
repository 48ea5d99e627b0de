// Package domain defines the canonical interfaces shared between the traversal
// engine and its lookup collaborators.
// Consumers should depend on these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// ConnectorLookup resolves accounts to the connector values they hold.
//
// Accounts holding no value of typ are absent from the result. An empty ids
// slice yields an empty map without querying.
type ConnectorLookup interface {
	Connectors(ctx context.Context, typ models.ConnectorType, ids []models.AccountID) (models.ConnectorMap, error)
}

// ConnectionLookup resolves connector values to every account holding them,
// including accounts outside the current frontier. An empty values slice
// yields an empty map without querying.
type ConnectionLookup interface {
	Connections(ctx context.Context, typ models.ConnectorType, values []models.ConnectorValue) (models.ConnectionMap, error)
}

// Lookup is a data source able to serve both lookups.
type Lookup interface {
	ConnectorLookup
	ConnectionLookup
}
