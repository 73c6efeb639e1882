package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/search"
)

type searchExperiencesArgs struct {
	Axis     ghap.Axis          `json:"axis"`
	Query    string             `json:"query"`
	K        int                `json:"k"`
	Domain   ghap.Domain        `json:"domain"`
	Strategy ghap.Strategy      `json:"strategy"`
	Outcome  ghap.OutcomeStatus `json:"outcome"`
}

func searchExperiences(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args searchExperiencesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateAxis(args.Axis); err != nil {
		return nil, err
	}
	if err := validateQuery(args.Query); err != nil {
		return nil, err
	}
	k := args.K
	if k <= 0 {
		k = search.DefaultLimit
	}
	return d.Searcher.SearchExperiences(ctx, args.Axis, args.Query, k, search.ExperienceFilter{
		Domain: args.Domain, Strategy: args.Strategy, Outcome: args.Outcome,
	})
}

type runClusterArgs struct {
	Axis ghap.Axis `json:"axis"`
}

func runCluster(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args runClusterArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateAxis(args.Axis); err != nil {
		return nil, err
	}

	infos, err := d.Cluster.Run(ctx, args.Axis)
	if err != nil {
		return nil, err
	}

	if d.Publisher != nil {
		memberCount := 0
		for _, info := range infos {
			memberCount += info.Size
		}
		d.Publisher.PublishClusterCompleted(string(args.Axis), len(infos), memberCount)
	}
	return infos, nil
}
