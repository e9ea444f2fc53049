package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

// Write serialises rpt as the JSON artifact at
// output/report_<UTC timestamp>.json, refusing to overwrite an existing
// file at that path. Returns the path written. Any failure here is an
// unrecoverable internal error, not a ConfigError: the run already
// completed successfully up to this point.
func Write(outputDir string, rpt model.Report, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	name := "report_" + now.UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(outputDir, name)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("refusing to overwrite existing report artifact: %s", path)
	}

	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report artifact: %w", err)
	}
	return path, nil
}
