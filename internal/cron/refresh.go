package cronrunner

import (
	"context"
	"errors"

	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

// Refresher re-runs the lookup of the address being viewed.
type Refresher interface {
	Refresh(ctx context.Context) (uint64, error)
}

// RefreshJob refreshes the current address. Nothing being viewed is not an error.
func RefreshJob(r Refresher) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.Refresh(ctx)
		if errors.Is(err, portfolio.ErrNoCurrent) {
			return nil
		}
		return err
	}
}
