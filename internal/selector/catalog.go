package selector

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/answers/internal/model"
)

// Catalog is the static model inventory loaded from YAML.
type Catalog struct {
	Models []model.ModelCandidate `yaml:"models"`
}

// LoadCatalog reads a model catalog from the given YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "selector: read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, eris.Wrap(err, "selector: parse catalog")
	}
	if len(cat.Models) == 0 {
		return nil, eris.New("selector: catalog has no models")
	}
	return &cat, nil
}

// Enabled returns the enabled candidates in catalog order.
func (c *Catalog) Enabled() []model.ModelCandidate {
	out := make([]model.ModelCandidate, 0, len(c.Models))
	for _, m := range c.Models {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}
