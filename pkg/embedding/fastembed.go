package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/anush008/fastembed-go"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

// FastEmbedEmbedder runs local CPU ONNX inference via fastembed-go. The
// model is lazy-loaded on first use and all inference runs on a bounded
// worker pool so the calling goroutine never blocks the request executor
// (spec.md §4.A, §9 "coroutine control flow").
type FastEmbedEmbedder struct {
	modelName string
	dim       int
	pool      *workerPool

	mu    sync.Mutex
	model *fastembed.FlagEmbedding
}

// NewFastEmbedEmbedder constructs a lazily-loaded embedder for modelName,
// producing vectors of dimension dim, running on a pool of workers goroutines.
func NewFastEmbedEmbedder(modelName string, dim int, workers int) *FastEmbedEmbedder {
	return &FastEmbedEmbedder{
		modelName: modelName,
		dim:       dim,
		pool:      newWorkerPool(workers),
	}
}

func (f *FastEmbedEmbedder) Dimension() int { return f.dim }

// ensureLoaded lazily initializes the ONNX model, forcing the CPU execution
// provider — accelerator stacks (CUDA/CoreML/DirectML) are not guaranteed
// stable in CALM's deployment environments.
func (f *FastEmbedEmbedder) ensureLoaded() (*fastembed.FlagEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model != nil {
		return f.model, nil
	}

	opts := fastembed.InitOptions{
		Model:         fastembed.EmbeddingModel(f.modelName),
		ExecutionProviders: []string{"CPUExecutionProvider"},
		MaxLength:     512,
	}
	model, err := fastembed.NewFlagEmbedding(&opts)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, fmt.Sprintf("failed to load model %q", f.modelName), err)
	}
	f.model = model
	return f.model, nil
}

func (f *FastEmbedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *FastEmbedEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	return submit(ctx, f.pool, func() ([][]float32, error) {
		model, err := f.ensureLoaded()
		if err != nil {
			return nil, err
		}
		embeddings, err := model.Embed(texts, 0)
		if err != nil {
			return nil, calmerr.Wrap(calmerr.KindEmbedError, "inference failed", err)
		}
		return embeddings, nil
	})
}
