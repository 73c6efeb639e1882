package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

type upsertCommitArgs struct {
	SHA         string   `json:"sha"`
	Author      string   `json:"author"`
	AuthorEmail string   `json:"author_email"`
	Timestamp   int64    `json:"timestamp"`
	Message     string   `json:"message"`
	Files       []string `json:"files"`
	Insertions  int      `json:"insertions"`
	Deletions   int      `json:"deletions"`
	Project     string   `json:"project"`
}

func upsertCommit(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args upsertCommitArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := requireNonEmpty("sha", args.SHA); err != nil {
		return nil, err
	}
	if err := validateContent(args.Message); err != nil {
		return nil, err
	}

	embedder, err := d.Registry.For(embedding.RoleSemantic)
	if err != nil {
		return nil, err
	}
	vector, err := embedder.EmbedOne(ctx, args.Message)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, "embed commit message", err)
	}

	payload := vectorstore.Payload{
		"sha":          args.SHA,
		"author":       args.Author,
		"author_email": args.AuthorEmail,
		"timestamp":    args.Timestamp,
		"message":      args.Message,
		"files":        args.Files,
		"insertions":   args.Insertions,
		"deletions":    args.Deletions,
		"project":      args.Project,
	}
	if err := d.Store.Upsert(ctx, vectorstore.CollectionCommits, vectorstore.Point{ID: args.SHA, Vector: vector, Payload: payload}); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "upsert commit", err)
	}
	return map[string]string{"sha": args.SHA}, nil
}

type searchCommitsArgs struct {
	Query  string `json:"query"`
	K      int    `json:"k"`
	Author string `json:"author"`
	Since  *int64 `json:"since"`
	Until  *int64 `json:"until"`
}

func searchCommits(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args searchCommitsArgs
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
	return d.Searcher.SearchCommits(ctx, args.Query, k, search.CommitFilter{
		Author: args.Author, Since: args.Since, Until: args.Until,
	})
}
