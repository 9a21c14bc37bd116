// Package dataset loads invoice samples from a directory of generated
// invoices. Each sample is a <base>.json payload carrying the template
// and ground-truth data, plus a rendered <base>.pdf, a <base>.ocr.json
// word dump, and optional <base>.page-N.png renders.
package dataset

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/models"
)

var (
	fenceOpenRe = regexp.MustCompile("^```[a-zA-Z0-9]*")
	objectRe    = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRe     = regexp.MustCompile(`(?s)\[.*\]`)
)

// Load reads all samples under dir, sorted by ID. Files that do not
// parse, carry no template payload, or are missing their PDF or OCR
// sibling are skipped.
func Load(dir string) ([]*models.Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset dir: %w", err)
	}

	var samples []*models.Sample
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasSuffix(name, ".ocr.json") ||
			strings.HasPrefix(name, "llm_response_raw_") ||
			strings.HasSuffix(name, "_failed.json") {
			continue
		}

		jsonPath := filepath.Join(dir, name)
		raw, err := os.ReadFile(jsonPath)
		if err != nil {
			continue
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		payload := coercePayload(parsed)
		if payload == nil {
			continue
		}

		base := strings.TrimSuffix(name, ".json")
		pdfPath := filepath.Join(dir, base+".pdf")
		ocrPath := filepath.Join(dir, base+".ocr.json")
		if !fileExists(pdfPath) || !fileExists(ocrPath) {
			continue
		}

		template, _ := payload["template"].(map[string]any)
		data, _ := payload["data"].(map[string]any)
		visible, itemsVisible := collectVisiblePaths(template)

		samples = append(samples, &models.Sample{
			ID:           base,
			Data:         data,
			Template:     template,
			VisiblePaths: visible,
			ItemsVisible: itemsVisible,
			PDFPath:      pdfPath,
			OCRPath:      ocrPath,
			ImagePaths:   pageImages(dir, base),
		})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].ID < samples[j].ID })
	return samples, nil
}

// Select applies shuffle and limit settings from the run config.
func Select(samples []*models.Sample, cfg models.RunConfig) []*models.Sample {
	out := make([]*models.Sample, len(samples))
	copy(out, samples)
	if cfg.Shuffle {
		rng := rand.New(rand.NewSource(cfg.Seed))
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if cfg.SampleLimit > 0 && cfg.SampleLimit < len(out) {
		out = out[:cfg.SampleLimit]
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func pageImages(dir, base string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, base+".page-*.png"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// coercePayload digs a {"template":..., "data":...} object out of a
// sample file. Generated files sometimes nest the payload, or store
// template and data as JSON-encoded strings.
func coercePayload(raw any) map[string]any {
	found := findTemplatePayload(raw)
	if found == nil {
		return nil
	}
	template := parseJSONish(found["template"])
	data := parseJSONish(found["data"])

	if nested := findTemplatePayload(template); nested != nil {
		return coercePayload(nested)
	}
	if nested := findTemplatePayload(data); nested != nil {
		return coercePayload(nested)
	}

	templateMap, okTemplate := template.(map[string]any)
	dataMap, okData := data.(map[string]any)
	if !okTemplate || !okData {
		return nil
	}
	return map[string]any{"template": templateMap, "data": dataMap}
}

func findTemplatePayload(obj any) map[string]any {
	switch v := obj.(type) {
	case map[string]any:
		_, hasTemplate := v["template"]
		_, hasData := v["data"]
		if hasTemplate && hasData {
			return v
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if found := findTemplatePayload(v[key]); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range v {
			if found := findTemplatePayload(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func parseJSONish(value any) any {
	switch v := value.(type) {
	case map[string]any, []any:
		return v
	case string:
		cleaned := stripCodeFence(v)
		candidates := []string{cleaned}
		if m := objectRe.FindString(cleaned); m != "" {
			candidates = append(candidates, m)
		}
		if m := arrayRe.FindString(cleaned); m != "" {
			candidates = append(candidates, m)
		}
		for _, candidate := range candidates {
			var parsed any
			if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
				return parsed
			}
		}
		return v
	default:
		return value
	}
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimSpace(fenceOpenRe.ReplaceAllString(text, ""))
		if strings.HasSuffix(text, "```") {
			text = strings.TrimSpace(text[:len(text)-3])
		}
	}
	return text
}

// collectVisiblePaths walks the template sections and records which
// field paths the rendered invoice actually shows.
func collectVisiblePaths(template map[string]any) (map[string]bool, bool) {
	visible := map[string]bool{}
	itemsVisible := false

	sections, _ := template["sections"].([]any)
	for _, raw := range sections {
		section, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		stype, _ := section["type"].(string)
		if stype == "" {
			stype = "grid"
		}
		switch stype {
		case "grid":
			addFieldPaths(visible, section["fields"])
		case "panels":
			panels, _ := section["panels"].([]any)
			for _, rawPanel := range panels {
				if panel, ok := rawPanel.(map[string]any); ok {
					addFieldPaths(visible, panel["fields"])
				}
			}
		case "table":
			if dataPath, _ := section["data_path"].(string); dataPath != "" {
				visible[dataPath] = true
				if dataPath == "items" {
					itemsVisible = true
				}
			}
			totals, _ := section["totals"].([]any)
			for _, rawTotal := range totals {
				if total, ok := rawTotal.(map[string]any); ok {
					if path, _ := total["value_path"].(string); path != "" {
						visible[path] = true
					}
				}
			}
		case "notes":
			if path, _ := section["value_path"].(string); path != "" {
				visible[path] = true
			}
		}
	}
	return visible, itemsVisible
}

func addFieldPaths(visible map[string]bool, fields any) {
	list, _ := fields.([]any)
	for _, raw := range list {
		if field, ok := raw.(map[string]any); ok {
			if path, _ := field["value_path"].(string); path != "" {
				visible[path] = true
			}
		}
	}
}
