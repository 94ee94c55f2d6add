package insights

import "context"

// Provider generates usage insights from an aggregated booking summary.
type Provider interface {
	Generate(ctx context.Context, sum Summary) (*Insight, error)
}
