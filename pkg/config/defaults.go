package config

// DefaultConfig returns CALM's built-in configuration, used as the base
// that a loaded calm.yaml is merged on top of.
func DefaultConfig() *Config {
	return &Config{
		CalmDir:        "~/.calm",
		VectorStoreURL: "~/.calm/vectors",
		CodeModel:      "jinaai/jina-embeddings-v2-base-code",
		SemanticModel:  "BAAI/bge-base-en-v1.5",
		SourceWeights: map[string]float64{
			"memories":    1,
			"code":        1,
			"experiences": 1.5,
			"values":      0.75,
			"commits":     0.75,
		},
		SimilarityThreshold:    0.85,
		MaxItemFraction:        0.25,
		MaxFuzzyContentLength:  2000,
		MemoryContentMaxLength: 10000,
		BatchSize:              32,
		Retention:              DefaultRetentionConfig(),
		Queue:                  DefaultQueueConfig(),
		Embedding:              DefaultEmbeddingConfig(),
	}
}
