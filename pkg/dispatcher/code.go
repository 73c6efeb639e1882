package dispatcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// codeUnitID is content-derived (spec.md §3: "id stable, content-derived
// when possible") so re-indexing the same unit is idempotent.
func codeUnitID(project, filePath, qualifiedName string) string {
	sum := sha256.Sum256([]byte(project + "\x00" + filePath + "\x00" + qualifiedName))
	return hex.EncodeToString(sum[:])
}

type upsertCodeUnitArgs struct {
	Project       string `json:"project"`
	FilePath      string `json:"file_path"`
	QualifiedName string `json:"qualified_name"`
	UnitType      string `json:"unit_type"`
	Language      string `json:"language"`
	Signature     string `json:"signature"`
	StartLine     int    `json:"start_line"`
	EndLine       int    `json:"end_line"`
	FileHash      string `json:"file_hash"`
}

type upsertCodeUnitResult struct {
	ID string `json:"id"`
}

func upsertCodeUnit(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args upsertCodeUnitArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := requireNonEmpty("project", args.Project); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("file_path", args.FilePath); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("qualified_name", args.QualifiedName); err != nil {
		return nil, err
	}
	if err := validateContent(args.Signature); err != nil {
		return nil, err
	}

	id := codeUnitID(args.Project, args.FilePath, args.QualifiedName)

	embedder, err := d.Registry.For(embedding.RoleCode)
	if err != nil {
		return nil, err
	}
	vector, err := embedder.EmbedOne(ctx, args.Signature)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindEmbedError, "embed code unit signature", err)
	}

	payload := vectorstore.Payload{
		"project":        args.Project,
		"file_path":      args.FilePath,
		"qualified_name": args.QualifiedName,
		"unit_type":      args.UnitType,
		"language":       args.Language,
		"signature":      args.Signature,
		"start_line":     args.StartLine,
		"end_line":       args.EndLine,
		"file_hash":      args.FileHash,
	}
	if err := d.Store.Upsert(ctx, vectorstore.CollectionCodeUnits, vectorstore.Point{ID: id, Vector: vector, Payload: payload}); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "upsert code unit", err)
	}
	return upsertCodeUnitResult{ID: id}, nil
}

func deleteCodeUnit(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args idArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := requireNonEmpty("id", args.ID); err != nil {
		return nil, err
	}
	if err := d.Store.Delete(ctx, vectorstore.CollectionCodeUnits, args.ID); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "delete code unit", err)
	}
	return map[string]bool{"deleted": true}, nil
}

type searchCodeArgs struct {
	Query    string `json:"query"`
	K        int    `json:"k"`
	Project  string `json:"project"`
	Language string `json:"language"`
	UnitType string `json:"unit_type"`
}

func searchCode(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args searchCodeArgs
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
	return d.Searcher.SearchCode(ctx, args.Query, k, search.CodeFilter{
		Project: args.Project, Language: args.Language, UnitType: args.UnitType,
	})
}
