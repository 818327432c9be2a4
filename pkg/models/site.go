package models

// SiteConfig holds presentation settings read from the optional site file.
type SiteConfig struct {
	Title   string    `yaml:"title" toml:"title"`
	Tagline string    `yaml:"tagline" toml:"tagline"`
	About   string    `yaml:"about" toml:"about"`
	Footer  string    `yaml:"footer" toml:"footer"`
	Nav     []NavLink `yaml:"nav" toml:"nav"`
}

type NavLink struct {
	Label string `yaml:"label" toml:"label"`
	Href  string `yaml:"href" toml:"href"`
}

func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Title:   "Blog",
		Tagline: "Articles and notes",
		About:   "A small blog: read published articles, browse categories and write new posts.",
		Nav: []NavLink{
			{Label: "About", Href: "/about"},
			{Label: "Home", Href: "/home"},
			{Label: "Articles", Href: "/articles"},
			{Label: "Categories", Href: "/categories"},
			{Label: "Add Article", Href: "/articles/add"},
		},
	}
}
