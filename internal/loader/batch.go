package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// ExpandPaths resolves glob patterns, drops unsupported files and
// duplicates, and returns the result sorted.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			if !Supported(m) || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadAll loads paths concurrently with at most workers loaders in flight.
// Results keep the order of paths; the first error cancels the rest.
func LoadAll(ctx context.Context, paths []string, opt Options, workers int) ([]*dataset.Dataset, error) {
	if workers <= 0 {
		workers = 4
	}
	out := make([]*dataset.Dataset, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := LoadFile(ctx, p, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
