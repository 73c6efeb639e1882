package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/values"
)

type validateValueArgs struct {
	Text      string `json:"text"`
	ClusterID string `json:"cluster_id"`
}

func validateValue(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args validateValueArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateContent(args.Text); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("cluster_id", args.ClusterID); err != nil {
		return nil, err
	}
	return d.Values.Validate(ctx, args.Text, args.ClusterID)
}

type storeValueArgs struct {
	Text      string    `json:"text"`
	Axis      ghap.Axis `json:"axis"`
	ClusterID string    `json:"cluster_id"`
}

func storeValue(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args storeValueArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateContent(args.Text); err != nil {
		return nil, err
	}
	if err := validateAxis(args.Axis); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("cluster_id", args.ClusterID); err != nil {
		return nil, err
	}

	value, err := d.Values.Store(ctx, args.Text, args.Axis, args.ClusterID)
	if err != nil {
		return nil, err
	}
	if d.Publisher != nil {
		d.Publisher.PublishValueStored(value.ID, string(args.Axis), args.ClusterID)
	}
	return value, nil
}

type listValuesArgs struct {
	Axis ghap.Axis `json:"axis"`
}

func listValues(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args listValuesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	var axis *ghap.Axis
	if args.Axis != "" {
		if err := validateAxis(args.Axis); err != nil {
			return nil, err
		}
		axis = &args.Axis
	}
	list, err := d.Values.List(ctx, axis)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []values.Value{}
	}
	return list, nil
}

type searchValuesArgs struct {
	Query string    `json:"query"`
	K     int       `json:"k"`
	Axis  ghap.Axis `json:"axis"`
}

func searchValues(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args searchValuesArgs
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
	return d.Searcher.SearchValues(ctx, args.Query, k, args.Axis)
}
