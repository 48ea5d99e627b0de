package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// RunService reads and trims the traversal run log.
type RunService struct {
	c *Client
}

// List returns one page of run records, newest first.
func (s *RunService) List(ctx context.Context, opts RunListOptions) (*RunList, error) {
	params := url.Values{}
	if opts.Account > 0 {
		params.Set("account", strconv.FormatInt(opts.Account, 10))
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if !opts.Since.IsZero() {
		params.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var resp RunList
	if err := s.c.get(ctx, "/api/v1/runs", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Purge deletes runs older than retentionDays and returns how many were removed.
func (s *RunService) Purge(ctx context.Context, retentionDays int) (int, error) {
	var resp struct {
		Deleted int `json:"deleted"`
	}
	params := url.Values{"retention_days": {strconv.Itoa(retentionDays)}}
	if err := s.c.del(ctx, "/api/v1/runs", params, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
