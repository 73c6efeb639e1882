package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/journal"
)

func startSession(_ context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
	id, err := d.Session.StartSession()
	if err != nil {
		return nil, err
	}
	return map[string]string{"session_id": id}, nil
}

func getOrphanedGHAP(_ context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
	entry, err := d.Session.GetOrphanedGHAP()
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return map[string]any{"orphan": nil}, nil
	}
	return map[string]any{"orphan": entry}, nil
}

func adoptOrphan(_ context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
	entry, err := d.Journal.AdoptOrphan()
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type abandonOrphanArgs struct {
	Reason string `json:"reason"`
}

func abandonOrphan(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args abandonOrphanArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	entry, err := d.Journal.AbandonOrphan(args.Reason)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type createGHAPArgs struct {
	Domain     ghap.Domain   `json:"domain"`
	Strategy   ghap.Strategy `json:"strategy"`
	Goal       string        `json:"goal"`
	Hypothesis string        `json:"hypothesis"`
	Action     string        `json:"action"`
	Prediction string        `json:"prediction"`
}

func createGHAP(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args createGHAPArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateDomain(args.Domain); err != nil {
		return nil, err
	}
	if err := validateStrategy(args.Strategy); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("goal", args.Goal); err != nil {
		return nil, err
	}
	for name, value := range map[string]string{"hypothesis": args.Hypothesis, "action": args.Action, "prediction": args.Prediction} {
		if err := validateHAPField(name, value); err != nil {
			return nil, err
		}
	}
	return d.Journal.CreateGHAP(args.Domain, args.Strategy, args.Goal, args.Hypothesis, args.Action, args.Prediction)
}

type updateGHAPArgs struct {
	Hypothesis *string       `json:"hypothesis"`
	Action     *string       `json:"action"`
	Prediction *string       `json:"prediction"`
	Strategy   *ghap.Strategy `json:"strategy"`
	Note       *string       `json:"note"`
}

func updateGHAP(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args updateGHAPArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	for name, value := range map[string]*string{"hypothesis": args.Hypothesis, "action": args.Action, "prediction": args.Prediction} {
		if value != nil {
			if err := validateHAPField(name, *value); err != nil {
				return nil, err
			}
		}
	}
	if args.Note != nil {
		if err := validateNote("note", *args.Note); err != nil {
			return nil, err
		}
	}
	if args.Strategy != nil {
		if err := validateStrategy(*args.Strategy); err != nil {
			return nil, err
		}
	}
	return d.Journal.UpdateGHAP(journal.UpdateInput{
		Hypothesis: args.Hypothesis, Action: args.Action, Prediction: args.Prediction,
		Strategy: args.Strategy, Note: args.Note,
	})
}

type resolveGHAPArgs struct {
	Status               ghap.OutcomeStatus `json:"status"`
	Result               string             `json:"result"`
	AutoCaptured         bool               `json:"auto_captured"`
	AnnotatedSameSession bool               `json:"annotated_same_session"`
	Surprise             string             `json:"surprise"`
	RootCause            *ghap.RootCause    `json:"root_cause"`
	Lesson               *ghap.Lesson       `json:"lesson"`
}

func resolveGHAP(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args resolveGHAPArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if err := validateOutcomeStatus(args.Status); err != nil {
		return nil, err
	}
	if err := validateContent(args.Result); err != nil {
		return nil, err
	}
	if err := validateNote("surprise", args.Surprise); err != nil {
		return nil, err
	}

	entry, err := d.Journal.ResolveGHAP(journal.ResolveInput{
		Status: args.Status, Result: args.Result, AutoCaptured: args.AutoCaptured,
		AnnotatedSameSession: args.AnnotatedSameSession, Surprise: args.Surprise,
		RootCause: args.RootCause, Lesson: args.Lesson,
	})
	if err != nil {
		return nil, err
	}

	if err := d.Persister.Persist(ctx, entry); err != nil {
		return nil, err
	}
	if d.Publisher != nil {
		d.Publisher.PublishGHAPResolved(entry.ID, string(ghap.AxisFull), string(entry.Outcome.Status))
	}
	return entry, nil
}

type checkInArgs struct {
	Frequency int `json:"frequency"`
}

func shouldCheckIn(_ context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var args checkInArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, calmerr.Validationf("invalid arguments: %v", err)
	}
	if args.Frequency <= 0 {
		return nil, calmerr.Validationf("frequency must be positive")
	}
	due, err := d.Session.ShouldCheckIn(args.Frequency)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"due": due}, nil
}

func incrementToolCount(_ context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
	count, err := d.Session.IncrementToolCount()
	if err != nil {
		return nil, err
	}
	return map[string]int{"tool_count": count}, nil
}

func resetToolCount(_ context.Context, d *Dispatcher, _ json.RawMessage) (any, error) {
	if err := d.Session.ResetToolCount(); err != nil {
		return nil, err
	}
	return map[string]bool{"reset": true}, nil
}
