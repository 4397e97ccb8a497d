package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DocumentDBPath == "" {
		cfg.Storage.DocumentDBPath = "/usr/local/var/torikomi/data/db/documents.db"
	}
	if cfg.Storage.ExecLogDBPath == "" {
		cfg.Storage.ExecLogDBPath = "/usr/local/var/torikomi/data/db/execlog.db"
	}
	if cfg.Storage.KeywordPath == "" {
		cfg.Storage.KeywordPath = "/usr/local/var/torikomi/data/indices/bleve"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/torikomi/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Pipeline.MaxAttempts == 0 {
		cfg.Pipeline.MaxAttempts = 3
	}
	if cfg.Pipeline.BackoffSeconds == 0 {
		cfg.Pipeline.BackoffSeconds = 0.2
	}
	if cfg.Pipeline.TimeoutSeconds == 0 {
		cfg.Pipeline.TimeoutSeconds = 60
	}
	if cfg.Pipeline.ChunkMaxWords == 0 {
		cfg.Pipeline.ChunkMaxWords = 200
	}
	if cfg.Notify.Retries == 0 {
		cfg.Notify.Retries = 3
	}
	if cfg.Notify.BackoffSeconds == 0 {
		cfg.Notify.BackoffSeconds = 0.2
	}
	if cfg.Query.DefaultLimit == 0 {
		cfg.Query.DefaultLimit = 5
	}
	if cfg.Query.MaxLimit == 0 {
		cfg.Query.MaxLimit = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
