// Package embedding provides the two named embedders CALM routes text
// through: code (384-dim) and semantic (768-dim). Model execution is
// CPU-bound and is offloaded from the calling goroutine onto a bounded
// worker pool.
package embedding

import (
	"context"
	"time"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

// Role names an embedding space (spec.md §3).
type Role string

const (
	RoleCode     Role = "code"
	RoleSemantic Role = "semantic"
)

// Dimension for each role, fixed by spec.md §3.
const (
	CodeDim     = 384
	SemanticDim = 768
)

// Embedder is the capability set every variant (real, mock) satisfies.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// DefaultTimeout bounds each Registry.EmbedOne and Registry.EmbedMany call.
// An Embedder obtained through For is called without this timeout.
const DefaultTimeout = 30 * time.Second

// Registry routes a Role to its Embedder.
type Registry struct {
	code     Embedder
	semantic Embedder
}

// NewRegistry builds a Registry from explicit embedders, one per role.
func NewRegistry(code, semantic Embedder) *Registry {
	return &Registry{code: code, semantic: semantic}
}

// For returns the embedder bound to role.
func (r *Registry) For(role Role) (Embedder, error) {
	switch role {
	case RoleCode:
		return r.code, nil
	case RoleSemantic:
		return r.semantic, nil
	default:
		return nil, calmerr.Validationf("unknown embedding role %q", role)
	}
}

// EmbedOne embeds a single text with the role's embedder, under the default
// timeout, and converts embedder failures into a calmerr.KindEmbedError.
func (r *Registry) EmbedOne(ctx context.Context, role Role, text string) ([]float32, error) {
	e, err := r.For(role)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	vec, err := e.EmbedOne(ctx, text)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, "embed_one failed", err)
	}
	return vec, nil
}

// EmbedMany embeds a batch of texts, all of the same role — batched calls
// never mix roles (spec.md §4.A).
func (r *Registry) EmbedMany(ctx context.Context, role Role, texts []string) ([][]float32, error) {
	e, err := r.For(role)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	vecs, err := e.EmbedMany(ctx, texts)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, "embed_many failed", err)
	}
	return vecs, nil
}
