package patterns

import (
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/priceintel/pricingintel/internal/errs"
)

// LoadKeywords reads a category -> phrase-list YAML file and compiles it
// into a Table.
func LoadKeywords(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Reason: "unreadable keywords file", Err: err}
	}
	var categories map[string][]string
	if err := yaml.Unmarshal(raw, &categories); err != nil {
		return nil, &errs.ConfigError{Reason: "malformed keywords file", Err: err}
	}
	return Compile(categories), nil
}
