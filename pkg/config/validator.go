package config

import "fmt"

// Validator validates a loaded Config in a fail-fast style, returning the
// first violation found.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation, stopping at the first
// error.
func (v *Validator) ValidateAll() error {
	if err := v.validateRequired(); err != nil {
		return err
	}
	if err := v.validateRanges(); err != nil {
		return err
	}
	if err := v.validateRetention(); err != nil {
		return err
	}
	if err := v.validateQueue(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateRequired() error {
	if v.cfg.CalmDir == "" {
		return NewValidationError("calm_dir", fmt.Errorf("must not be empty"))
	}
	if v.cfg.VectorStoreURL == "" {
		return NewValidationError("vector_store_url", fmt.Errorf("must not be empty"))
	}
	if v.cfg.CodeModel == "" {
		return NewValidationError("code_model", fmt.Errorf("must not be empty"))
	}
	if v.cfg.SemanticModel == "" {
		return NewValidationError("semantic_model", fmt.Errorf("must not be empty"))
	}
	return nil
}

func (v *Validator) validateRanges() error {
	if v.cfg.SimilarityThreshold < 0 || v.cfg.SimilarityThreshold > 1 {
		return NewValidationError("similarity_threshold", fmt.Errorf("must be within [0,1], got %v", v.cfg.SimilarityThreshold))
	}
	if v.cfg.MaxItemFraction <= 0 || v.cfg.MaxItemFraction > 1 {
		return NewValidationError("max_item_fraction", fmt.Errorf("must be within (0,1], got %v", v.cfg.MaxItemFraction))
	}
	if v.cfg.MaxFuzzyContentLength <= 0 {
		return NewValidationError("max_fuzzy_content_length", fmt.Errorf("must be positive, got %d", v.cfg.MaxFuzzyContentLength))
	}
	if v.cfg.MemoryContentMaxLength <= 0 {
		return NewValidationError("memory_content_max_length", fmt.Errorf("must be positive, got %d", v.cfg.MemoryContentMaxLength))
	}
	if v.cfg.BatchSize <= 0 {
		return NewValidationError("batch_size", fmt.Errorf("must be positive, got %d", v.cfg.BatchSize))
	}
	for source, w := range v.cfg.SourceWeights {
		if w < 0 {
			return NewValidationError("source_weights."+source, fmt.Errorf("must be non-negative, got %v", w))
		}
	}
	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return NewValidationError("retention", fmt.Errorf("must not be nil"))
	}
	if r.ArchiveRetentionDays <= 0 {
		return NewValidationError("retention.archive_retention_days", fmt.Errorf("must be positive, got %d", r.ArchiveRetentionDays))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention.cleanup_interval", fmt.Errorf("must be positive, got %v", r.CleanupInterval))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return NewValidationError("queue", fmt.Errorf("must not be nil"))
	}
	if q.EmbedWorkers <= 0 {
		return NewValidationError("queue.embed_workers", fmt.Errorf("must be positive, got %d", q.EmbedWorkers))
	}
	return nil
}
