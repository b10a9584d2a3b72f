package badge

import (
	_ "embed"
	"fmt"

	"github.com/okian/kudosly/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog returns the built-in badge definitions.
func Catalog() ([]model.Badge, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a YAML list of badge definitions. Every badge must
// have an evaluation rule.
func ParseCatalog(data []byte) ([]model.Badge, error) {
	var badges []model.Badge
	if err := yaml.Unmarshal(data, &badges); err != nil {
		return nil, fmt.Errorf("parse badge catalog: %w", err)
	}
	for _, b := range badges {
		if _, ok := rules[b.ID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBadge, b.ID)
		}
	}
	return badges, nil
}
