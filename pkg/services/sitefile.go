package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blog-cms/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadSiteConfig reads the site file at path on top of the defaults.
// An empty path returns the defaults unchanged.
func LoadSiteConfig(path string) (models.SiteConfig, error) {
	site := models.DefaultSiteConfig()
	if path == "" {
		return site, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return site, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	// list decoders may append to an existing slice
	defaultNav := site.Nav
	site.Nav = nil
	if err := DecodeSiteFile(content, format, &site); err != nil {
		return models.DefaultSiteConfig(), fmt.Errorf("%s: %w", path, err)
	}
	if len(site.Nav) == 0 {
		site.Nav = defaultNav
	}
	return site, nil
}

// DecodeSiteFile decodes content in the given format (yaml, yml, toml, json) into site.
func DecodeSiteFile(content []byte, format string, site *models.SiteConfig) error {
	switch format {
	case "yaml", "yml":
		return yaml.Unmarshal(content, site)
	case "toml":
		return toml.Unmarshal(content, site)
	case "json":
		return json.Unmarshal(content, site)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
