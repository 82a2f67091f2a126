package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"

	"github.com/tripdesk-core/server/internal/assistant/model"
	errx "github.com/tripdesk-core/server/internal/core/error"
	"github.com/tripdesk-core/server/internal/resilience"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Dispatcher resolves a plan's tool calls through the resilience executor
// and flattens each tool's output into receipt facts. Tools never make it
// throw: every failure mode collapses to an ok:false reason code on the
// bundle.
type Dispatcher struct {
	exec  *resilience.Executor
	tools map[string]tool.InvokableTool
}

func New(ctx context.Context, exec *resilience.Executor, available []tool.BaseTool) (*Dispatcher, error) {
	index := make(map[string]tool.InvokableTool, len(available))
	for _, bt := range available {
		info, err := bt.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve tool info: %w", err)
		}
		inv, ok := bt.(tool.InvokableTool)
		if !ok {
			return nil, fmt.Errorf("tool %q is not invokable", info.Name)
		}
		index[info.Name] = inv
	}
	return &Dispatcher{exec: exec, tools: index}, nil
}

// Dispatch runs every planned call in order. A failing call is recorded and
// skipped; the bundle carries whatever facts the remaining calls produced.
func (d *Dispatcher) Dispatch(ctx context.Context, plan *model.Plan) *model.ToolBundle {
	bundle := &model.ToolBundle{Plan: plan}
	started := time.Now()

	for _, call := range plan.ToolCalls {
		facts, reason := d.invoke(ctx, call)
		if reason != "" {
			bundle.Failures = append(bundle.Failures, model.ToolFailure{Target: call.Tool, Reason: reason})
			logx.Warn().
				Str("tool", call.Tool).
				Str("reason", reason).
				Msg("dispatch: tool call failed")
			continue
		}
		bundle.Facts = append(bundle.Facts, facts...)
	}

	bundle.LatencyMS = time.Since(started).Milliseconds()
	return bundle
}

// invoke runs one call. The returned reason is empty on success.
func (d *Dispatcher) invoke(ctx context.Context, call model.ToolCall) ([]model.FactUsed, string) {
	tl, ok := d.tools[call.Tool]
	if !ok {
		return nil, errx.ReasonUnknownTool
	}

	args, err := json.Marshal(call.Args)
	if err != nil {
		return nil, errx.ReasonBadArgs
	}

	var raw string
	execErr := d.exec.Execute(ctx, call.Tool, func(ctx context.Context) error {
		out, err := tl.InvokableRun(ctx, string(args))
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if execErr != nil {
		return nil, reasonFor(execErr)
	}

	// Shared envelope: the tool itself may have answered ok:false.
	var env struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		logx.Warn().Str("tool", call.Tool).Err(err).Msg("dispatch: malformed tool output")
		return nil, errx.ReasonException
	}
	if !env.OK {
		if env.Reason == "" {
			env.Reason = errx.ReasonUnavailable
		}
		return nil, env.Reason
	}

	facts, err := flattenFacts(call.Tool, raw)
	if err != nil {
		logx.Warn().Str("tool", call.Tool).Err(err).Msg("dispatch: cannot flatten tool output")
		return nil, errx.ReasonException
	}
	return facts, ""
}

// reasonFor maps executor errors onto the reason taxonomy. Circuit-open and
// timeout keep their distinguishable codes; everything else a tool threw is
// an exception.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return errx.ReasonCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return errx.ReasonTimeout
	default:
		return errx.ReasonException
	}
}
