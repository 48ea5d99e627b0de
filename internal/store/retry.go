package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/domain"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

// Retrying retries failed lookups with exponential backoff. The engine never
// retries on its own; a failure surfacing from here fails the traversal.
type Retrying struct {
	next     domain.Lookup
	retries  uint64
	interval time.Duration
	log      *logrus.Logger
}

// WithRetries wraps next so each lookup is attempted up to retries extra times,
// starting interval apart. retries <= 0 returns next unchanged.
func WithRetries(next domain.Lookup, retries int, interval time.Duration, log *logrus.Logger) domain.Lookup {
	if retries <= 0 {
		return next
	}

	return &Retrying{next: next, retries: uint64(retries), interval: interval, log: log}
}

// Connectors implements domain.ConnectorLookup.
func (r *Retrying) Connectors(ctx context.Context, typ models.ConnectorType, ids []models.AccountID) (models.ConnectorMap, error) {
	var out models.ConnectorMap

	err := r.retry(ctx, typ, models.OpConnectors, func() error {
		var err error
		out, err = r.next.Connectors(ctx, typ, ids)

		return err
	})

	return out, err
}

// Connections implements domain.ConnectionLookup.
func (r *Retrying) Connections(ctx context.Context, typ models.ConnectorType, values []models.ConnectorValue) (models.ConnectionMap, error) {
	var out models.ConnectionMap

	err := r.retry(ctx, typ, models.OpConnections, func() error {
		var err error
		out, err = r.next.Connections(ctx, typ, values)

		return err
	})

	return out, err
}

func (r *Retrying) retry(ctx context.Context, typ models.ConnectorType, op string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	if r.interval > 0 {
		policy.InitialInterval = r.interval
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, r.retries), ctx)

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && (ctx.Err() != nil || errors.Is(err, ErrUnknownConnector)) {
			return backoff.Permanent(err)
		}

		return err
	}, b, func(err error, wait time.Duration) {
		metrics.LookupRetries.WithLabelValues(string(typ), op).Inc()
		r.log.WithError(err).WithFields(logrus.Fields{
			"connector_type": typ,
			"op":             op,
			"wait":           wait.String(),
		}).Warn("lookup failed, retrying")
	})
}
