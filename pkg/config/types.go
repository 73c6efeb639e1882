package config

import "time"

// Config is the umbrella configuration object returned by Initialize. It
// carries every tunable spec.md §6 names plus the sub-sections the
// supplemented retention/queue/embedding surfaces need.
type Config struct {
	configDir string // directory calm.yaml was loaded from, for reference

	// CalmDir is the service's home directory: journal, metadata, and
	// (unless VectorStoreURL overrides it) the vector store all live here.
	CalmDir string `yaml:"calm_dir"`

	// VectorStoreURL is the chromem persistence path. Despite the name it
	// is a filesystem location, not a network address — the vector store
	// is embedded, per spec.md §4.B.
	VectorStoreURL string `yaml:"vector_store_url"`

	CodeModel     string `yaml:"code_model"`
	SemanticModel string `yaml:"semantic_model"`

	// SourceWeights weights Context Assembler sources during budgeting.
	// Sums are free; DefaultConfig's weights are used for any source key
	// not present here.
	SourceWeights map[string]float64 `yaml:"source_weights"`

	SimilarityThreshold    float64 `yaml:"similarity_threshold"`
	MaxItemFraction        float64 `yaml:"max_item_fraction"`
	MaxFuzzyContentLength  int     `yaml:"max_fuzzy_content_length"`
	MemoryContentMaxLength int     `yaml:"memory_content_max_length"`
	BatchSize              int     `yaml:"batch_size"`

	Retention *RetentionConfig `yaml:"retention"`
	Queue     *QueueConfig     `yaml:"queue"`
	Embedding *EmbeddingConfig `yaml:"embedding"`
}

// RetentionConfig controls the archive/value cleanup sweep (pkg/retention).
type RetentionConfig struct {
	// ArchiveRetentionDays is how many days of session_entries archives
	// (archive/*.jsonl) to keep before pruning.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// CleanupInterval is how often the sweep runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		ArchiveRetentionDays: 90,
		CleanupInterval:      12 * time.Hour,
	}
}

// QueueConfig sizes the embedding worker pool (pkg/embedding's pool.go).
type QueueConfig struct {
	EmbedWorkers int `yaml:"embed_workers"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{EmbedWorkers: 4}
}

// EmbeddingConfig overrides the two embedding dimensions, for operators
// running models other than the built-in defaults.
type EmbeddingConfig struct {
	CodeDim     int `yaml:"code_dim"`
	SemanticDim int `yaml:"semantic_dim"`
}

// DefaultEmbeddingConfig returns the built-in dimensions, matching
// pkg/embedding's CodeDim/SemanticDim constants.
func DefaultEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{CodeDim: 384, SemanticDim: 768}
}

// ConfigDir returns the directory calm.yaml was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}
