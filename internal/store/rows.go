package store

import (
	"database/sql"
	"fmt"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// scanHolding reads one (account, value) row. ok is false for null or empty values.
func scanHolding(rows rowScanner) (models.AccountID, models.ConnectorValue, bool, error) {
	var (
		raw   any
		value sql.NullString
	)

	if err := rows.Scan(&raw, &value); err != nil {
		return 0, "", false, fmt.Errorf("scanning holding row: %w", err)
	}

	if !value.Valid || value.String == "" {
		return 0, "", false, nil
	}

	id, err := models.CoerceAccountID(raw)
	if err != nil {
		return 0, "", false, fmt.Errorf("malformed holding row: %w", err)
	}

	return id, models.ConnectorValue(value.String), true, nil
}

func scanConnectors(rows rowScanner, out models.ConnectorMap) error {
	for rows.Next() {
		id, value, ok, err := scanHolding(rows)
		if err != nil {
			return err
		}

		if ok {
			out.Add(id, value)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating connector rows: %w", err)
	}

	return nil
}

func scanConnections(rows rowScanner, out models.ConnectionMap) error {
	for rows.Next() {
		id, value, ok, err := scanHolding(rows)
		if err != nil {
			return err
		}

		if ok {
			out.Add(value, id)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating connection rows: %w", err)
	}

	return nil
}
