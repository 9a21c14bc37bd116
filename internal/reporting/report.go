package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// WriteJSON writes the full run outcome as an indented JSON report.
// Parent directories are created as needed.
func WriteJSON(outcome *models.RunOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadOutcome reads a previously written JSON report.
func LoadOutcome(path string) (*models.RunOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	var outcome models.RunOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &outcome, nil
}
