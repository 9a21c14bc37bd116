package orchestration

import (
	"fmt"
	"path/filepath"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// FilterSamples returns the subset of samples whose ID matches at least
// one of the given glob patterns. An empty patterns slice returns all
// samples unchanged.
func FilterSamples(samples []*models.Sample, patterns []string) ([]*models.Sample, error) {
	if len(patterns) == 0 {
		return samples, nil
	}

	var matched []*models.Sample
	for _, sample := range samples {
		ok, err := matchesAny(sample.ID, patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, sample)
		}
	}
	return matched, nil
}

func matchesAny(id string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := filepath.Match(p, id)
		if err != nil {
			return false, fmt.Errorf("invalid sample filter pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
