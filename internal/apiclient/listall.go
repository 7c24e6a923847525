package apiclient

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/diewo77/nexus-crm/internal/records"
)

// ListAll fetches every resource concurrently. It returns only when all calls
// succeeded; the first failure cancels the rest and is returned.
func (c *Client) ListAll(ctx context.Context, resources []Resource) (map[Resource][]records.Record, error) {
	results := make([][]records.Record, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		g.Go(func() error {
			rows, err := c.List(gctx, res)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[Resource][]records.Record, len(resources))
	for i, res := range resources {
		out[res] = results[i]
	}
	return out, nil
}
