package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/hydra/data/db/records.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/hydra/data/indices"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MissingPolicy == "" {
		cfg.Search.MissingPolicy = "omit"
	}
	if cfg.Search.HighlightStyle == "" {
		cfg.Search.HighlightStyle = "html"
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
	if cfg.Import.DefaultCollection == "" && len(cfg.Collections) == 1 {
		cfg.Import.DefaultCollection = cfg.Collections[0].Name
	}
}
