package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/metadata"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

type createMemoryArgs struct {
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags"`
	Project    string   `json:"project"`
}

type createMemoryResult struct {
	ID string `json:"id"`
}

func createMemory(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args createMemoryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateContent(args.Content); err != nil {
		return nil, err
	}
	if err := validateCategory(args.Category); err != nil {
		return nil, err
	}
	if err := validateImportance(args.Importance); err != nil {
		return nil, err
	}
	if err := validateTags(args.Tags); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	createdAt := time.Now().Unix()

	embedder, err := d.Registry.For(embedding.RoleSemantic)
	if err != nil {
		return nil, err
	}
	vector, err := embedder.EmbedOne(ctx, args.Content)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, "embed memory content", err)
	}

	payload := vectorstore.Payload{
		"content":    args.Content,
		"category":   args.Category,
		"importance": args.Importance,
		"tags":       args.Tags,
		"created_at": createdAt,
		"project":    args.Project,
	}
	if err := d.Store.Upsert(ctx, vectorstore.CollectionMemories, vectorstore.Point{ID: id, Vector: vector, Payload: payload}); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "upsert memory", err)
	}

	if err := d.Metadata.PutMemory(metadata.MemoryRecord{
		ID: id, Content: args.Content, Category: args.Category, Importance: args.Importance,
		Tags: args.Tags, CreatedAt: createdAt, Project: args.Project,
	}); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "persist memory shadow record", err)
	}

	return createMemoryResult{ID: id}, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func getMemory(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := requireNonEmpty("id", args.ID); err != nil {
		return nil, err
	}
	rec, err := d.Metadata.GetMemory(args.ID)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "get memory", err)
	}
	if rec == nil {
		return nil, calmerr.NotFoundf("memory %q not found", args.ID)
	}
	return rec, nil
}

func deleteMemory(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := requireNonEmpty("id", args.ID); err != nil {
		return nil, err
	}
	if err := d.Store.Delete(ctx, vectorstore.CollectionMemories, args.ID); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "delete memory vector", err)
	}
	if err := d.Metadata.DeleteMemory(args.ID); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "delete memory shadow record", err)
	}
	return map[string]bool{"deleted": true}, nil
}

type listMemoriesArgs struct {
	Project string `json:"project"`
}

func listMemories(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args listMemoriesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	recs, err := d.Metadata.ListMemories(args.Project)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []metadata.MemoryRecord{}
	}
	return recs, nil
}

type searchMemoriesArgs struct {
	Query         string   `json:"query"`
	K             int      `json:"k"`
	Category      string   `json:"category"`
	MinImportance *float64 `json:"min_importance"`
	TagsAny       []string `json:"tags_any"`
}

func searchMemories(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args searchMemoriesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateQuery(args.Query); err != nil {
		return nil, err
	}
	k := args.K
	if k <= 0 {
		k = search.DefaultLimit
	}
	return d.Searcher.SearchMemories(ctx, args.Query, k, search.MemoryFilter{
		Category: args.Category, MinImportance: args.MinImportance, TagsAny: args.TagsAny,
	})
}
