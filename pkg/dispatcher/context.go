package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	calmcontext "github.com/codeready-toolchain/calm/pkg/context"
)

type assembleContextArgs struct {
	Query       string   `json:"query"`
	Sources     []string `json:"sources"`
	TokenBudget int      `json:"token_budget"`
	Mode        string   `json:"mode"`
}

func assembleContext(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args assembleContextArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateQuery(args.Query); err != nil {
		return nil, err
	}
	if args.TokenBudget <= 0 {
		return nil, calmerr.Validationf("token_budget must be positive")
	}

	mode := calmcontext.ModeNormal
	switch args.Mode {
	case "", string(calmcontext.ModeNormal):
		mode = calmcontext.ModeNormal
	case string(calmcontext.ModePremortem):
		mode = calmcontext.ModePremortem
	default:
		return nil, calmerr.Validationf("unrecognized mode %q", args.Mode)
	}

	sources := args.Sources
	if len(sources) == 0 {
		sources = []string{
			calmcontext.SourceMemories, calmcontext.SourceValues,
			calmcontext.SourceExperiences, calmcontext.SourceCode, calmcontext.SourceCommits,
		}
	}

	return d.Assembler.Assemble(ctx, args.Query, sources, args.TokenBudget, mode)
}
