package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/tripdesk-core/server/internal/assistant/classify"
	composer "github.com/tripdesk-core/server/internal/assistant/compose"
	"github.com/tripdesk-core/server/internal/assistant/consent"
	"github.com/tripdesk-core/server/internal/assistant/dispatch"
	"github.com/tripdesk-core/server/internal/assistant/graph/conversations"
	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
	"github.com/tripdesk-core/server/internal/assistant/verify"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Node names of the turn graph.
const (
	NodeGate       = "consent_gate"
	NodeClassify   = "classifier"
	NodeRouter     = "router"
	NodeClarify    = "clarify"
	NodeConsentAsk = "consent_request"
	NodeDecline    = "decline"
	NodeDispatch   = "tool_dispatch"
	NodeCompose    = "composer"
	NodeVerify     = "verifier"
)

// NewGatePreHandler seeds the turn state before anything else runs.
func NewGatePreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.ThreadID = in.ThreadID
		s.Message = in.Message
		s.StartedAt = time.Now()
		return in, nil
	}
}

// NewGateNode records the user turn and settles any consent question in
// flight. An armed gate with a clear yes jumps straight to dispatch with the
// stored query; a clear no ends the turn politely; anything else falls
// through to ordinary classification with the gate left armed.
func NewGateNode(gate *consent.Gate, memory *slots.Memory, manager *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (*model.Plan, error) {
		priorCtx, err := manager.RecordUserTurn(ctx, in.ThreadID, in.Message)
		if err != nil {
			return nil, fmt.Errorf("record user turn: %w", err)
		}
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.PriorContext = priorCtx
			return nil
		}); err != nil {
			return nil, fmt.Errorf("stash prior context: %w", err)
		}

		awaiting, _ := gate.Pending(ctx, in.ThreadID)
		if !awaiting {
			return &model.Plan{Route: model.RouteClassify}, nil
		}

		outcome, query, err := gate.Resolve(ctx, in.ThreadID, in.Message)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", in.ThreadID).Msg("consent resolution failed, treating as unanswered")
			outcome = consent.OutcomeUnclear
		}

		switch outcome {
		case consent.OutcomeAccept:
			userSlots, err := memory.UserSlots(ctx, in.ThreadID)
			if err != nil {
				return nil, fmt.Errorf("load slots for research: %w", err)
			}
			lastIntentStr, _ := memory.Reserved(ctx, in.ThreadID, model.SlotKeyLastIntent)
			intent := model.Intent(lastIntentStr)
			if intent == "" || intent == model.IntentUnknown {
				intent = model.IntentWebSearch
			}
			plan := &model.Plan{
				Route:        model.RouteDispatch,
				Intent:       intent,
				ContentType:  model.ContentTravel,
				Slots:        userSlots,
				PendingQuery: query,
				BlendStyle:   model.StyleResearch,
				ToolCalls:    buildResearchCalls(query, userSlots),
			}
			recordPlan(ctx, plan, "consent_accepted", fmt.Sprintf("running stored query %q", query), 0)
			return plan, nil
		case consent.OutcomeDecline:
			plan := &model.Plan{Route: model.RouteDecline, BlendStyle: model.StyleDecline}
			recordPlan(ctx, plan, "consent_declined", "user refused the web lookup", 0)
			return plan, nil
		default:
			if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
				s.Decide("consent_unanswered", "reply did not settle the pending question, classifying as usual", 0)
				return nil
			}); err != nil {
				return nil, err
			}
			return &model.Plan{Route: model.RouteClassify}, nil
		}
	})
}

// NewGateCondition routes on the gate's verdict.
func NewGateCondition() func(context.Context, *model.Plan) (string, error) {
	return func(ctx context.Context, plan *model.Plan) (string, error) {
		switch plan.Route {
		case model.RouteDispatch:
			return NodeDispatch, nil
		case model.RouteDecline:
			return NodeDecline, nil
		default:
			return NodeClassify, nil
		}
	}
}

// NewClassifyNode runs the cascade over the incoming message with the
// thread's prior context.
func NewClassifyNode(cascade *classify.Cascade, memory *slots.Memory) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
		var threadID, message, priorCtx string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			threadID, message, priorCtx = s.ThreadID, s.Message, s.PriorContext
			return nil
		}); err != nil {
			return nil, err
		}

		userSlots, err := memory.UserSlots(ctx, threadID)
		if err != nil {
			return nil, fmt.Errorf("load prior slots: %w", err)
		}
		lastIntentStr, err := memory.Reserved(ctx, threadID, model.SlotKeyLastIntent)
		if err != nil {
			return nil, fmt.Errorf("load last intent: %w", err)
		}
		lastIntent := model.Intent(lastIntentStr)

		res := cascade.Classify(ctx, message, classify.Prior{
			LastIntent:  lastIntent,
			Slots:       userSlots,
			ContextText: priorCtx,
		})

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Classification = res
			s.PriorSlots = userSlots
			s.LastIntent = lastIntent
			s.Decide("classified", fmt.Sprintf("tier %s read the message as %s", res.Tier, res.Intent), res.Confidence)
			return nil
		}); err != nil {
			return nil, err
		}

		plan.Intent = res.Intent
		plan.ContentType = res.ContentType
		return plan, nil
	})
}

// NewRouterNode is the per-turn decision core: follow-up inference, slot
// merge, required-slot check, and the choice between clarify, consent, and
// dispatch.
func NewRouterNode(memory *slots.Memory, gate *consent.Gate) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
		var threadID, message string
		var res *model.ClassificationResult
		var lastIntent model.Intent
		var priorSlots map[string]string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			threadID, message = s.ThreadID, s.Message
			res = s.Classification
			lastIntent = s.LastIntent
			priorSlots = s.PriorSlots
			return nil
		}); err != nil {
			return nil, err
		}
		if res == nil {
			res = model.Unclassified()
		}

		intent := res.Intent

		// Terse follow-ups like "and Tuesday?" classify as unknown but carry
		// a fresh slot; an established thread keeps its last intent instead.
		if intent == model.IntentUnknown &&
			len(priorSlots) > 0 && len(res.Slots) > 0 &&
			lastIntent != "" && lastIntent != model.IntentUnknown {
			intent = lastIntent
			if err := stateDecide(ctx, "follow_up_inference",
				fmt.Sprintf("unknown intent with new slots on an ongoing thread, keeping %s", intent), res.Confidence); err != nil {
				return nil, err
			}
		}

		if res.ContentType == model.ContentSystem || intent == model.IntentSystem {
			plan.Route = model.RouteDispatch
			plan.Intent = model.IntentSystem
			plan.BlendStyle = model.StyleSystem
			return storePlan(ctx, plan)
		}
		if res.ContentType == model.ContentUnrelated {
			plan.Route = model.RouteDispatch
			plan.Intent = intent
			plan.BlendStyle = model.StyleRedirect
			if err := stateDecide(ctx, "redirected", "message is outside the travel domain", res.Confidence); err != nil {
				return nil, err
			}
			return storePlan(ctx, plan)
		}

		// A confident new question abandons a consent request left hanging.
		if awaiting, _ := gate.Pending(ctx, threadID); awaiting && intent != model.IntentUnknown {
			if err := gate.Clear(ctx, threadID); err != nil {
				logx.Warn().Err(err).Str("thread_id", threadID).Msg("failed to clear stale consent state")
			} else if err := stateDecide(ctx, "consent_abandoned",
				fmt.Sprintf("user moved on to a %s question", intent), 0); err != nil {
				return nil, err
			}
		}

		merged, _, _ := slots.Merge(priorSlots, res.Slots)
		missing := slots.Missing(intent, message, merged)
		merged, accepted, rejected, err := memory.MergeAndPersist(ctx, threadID, res.Slots, missing)
		if err != nil {
			return nil, fmt.Errorf("merge slots: %w", err)
		}
		if len(accepted) > 0 || len(rejected) > 0 {
			if err := stateDecide(ctx, "slots_merged",
				fmt.Sprintf("accepted %d, rejected %d placeholder(s)", len(accepted), len(rejected)), 0); err != nil {
				return nil, err
			}
		}
		if intent != model.IntentUnknown {
			if err := memory.SetReserved(ctx, threadID, map[string]string{
				model.SlotKeyLastIntent: string(intent),
			}); err != nil {
				return nil, fmt.Errorf("persist last intent: %w", err)
			}
		}

		plan.Intent = intent
		plan.ContentType = res.ContentType
		plan.Slots = merged
		plan.Missing = missing
		plan.Notes = res.Notes

		if intent == model.IntentUnknown {
			plan.Route = model.RouteDispatch
			plan.BlendStyle = model.StyleNudge
			return storePlan(ctx, plan)
		}

		// Live carrier data needs explicit consent before any web search
		// goes out. That outranks asking for dates or a city.
		if intent == model.IntentWebSearch ||
			(intent == model.IntentDestinations &&
				containsMissing(missing, slots.WhenClause) &&
				mentionsFlightVocabulary(message)) {
			plan.Route = model.RouteConsent
			plan.PendingQuery = message
			if err := stateDecide(ctx, "consent_required",
				"the question needs a live web search, asking first", 0); err != nil {
				return nil, err
			}
			return storePlan(ctx, plan)
		}

		if len(missing) > 0 {
			plan.Route = model.RouteClarify
			plan.Question = slots.ClarifyQuestion(missing)
			if err := stateDecide(ctx, "clarify_requested",
				fmt.Sprintf("still missing %v for a %s answer", missing, intent), 0); err != nil {
				return nil, err
			}
			return storePlan(ctx, plan)
		}

		plan.Route = model.RouteDispatch
		plan.BlendStyle = model.StyleFacts
		plan.ToolCalls = buildToolCalls(intent, merged)
		if err := stateDecide(ctx, "dispatch_planned",
			fmt.Sprintf("%s with %d tool call(s)", intent, len(plan.ToolCalls)), res.Confidence); err != nil {
			return nil, err
		}
		return storePlan(ctx, plan)
	})
}

// NewRouterCondition routes on the router's verdict.
func NewRouterCondition() func(context.Context, *model.Plan) (string, error) {
	return func(ctx context.Context, plan *model.Plan) (string, error) {
		switch plan.Route {
		case model.RouteClarify:
			return NodeClarify, nil
		case model.RouteConsent:
			return NodeConsentAsk, nil
		default:
			return NodeDispatch, nil
		}
	}
}

// NewClarifyNode ends the turn with the single open question.
func NewClarifyNode(manager *conversations.Manager, store model.ThreadStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.TurnReply, error) {
		return finalizeTurn(ctx, manager, store, composer.ClarifyReply(plan.Question), nil)
	})
}

// NewConsentAskNode arms the gate with the raw query and asks permission.
func NewConsentAskNode(gate *consent.Gate, manager *conversations.Manager, store model.ThreadStore, askTemplate string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.TurnReply, error) {
		var threadID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			threadID = s.ThreadID
			return nil
		}); err != nil {
			return nil, err
		}
		if err := gate.Request(ctx, threadID, plan.PendingQuery); err != nil {
			return nil, fmt.Errorf("arm consent gate: %w", err)
		}
		return finalizeTurn(ctx, manager, store, fmt.Sprintf(askTemplate, plan.PendingQuery), nil)
	})
}

// NewDeclineNode acknowledges a refused consent request and ends the turn.
func NewDeclineNode(manager *conversations.Manager, store model.ThreadStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.TurnReply, error) {
		return finalizeTurn(ctx, manager, store, composer.DeclineReply(), nil)
	})
}

// NewDispatchNode runs the planned tool calls through the dispatcher.
func NewDispatchNode(d *dispatch.Dispatcher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *model.Plan) (*model.ToolBundle, error) {
		bundle := d.Dispatch(ctx, plan)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Plan = plan
			s.Facts = bundle.Facts
			s.ToolLatencyMS = bundle.LatencyMS
			if len(plan.ToolCalls) > 0 {
				s.Decide("dispatched",
					fmt.Sprintf("%d call(s) produced %d fact(s), %d failure(s)",
						len(plan.ToolCalls), len(bundle.Facts), len(bundle.Failures)), 0)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		return bundle, nil
	})
}

// NewComposeNode turns the dispatch output into the user-facing reply.
func NewComposeNode(c *composer.Composer, manager *conversations.Manager, store model.ThreadStore) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, bundle *model.ToolBundle) (*model.TurnReply, error) {
		var message string
		var mixed bool
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			message = s.Message
			if s.Classification != nil {
				mixed = s.Classification.MixedLanguage
			}
			return nil
		}); err != nil {
			return nil, err
		}

		out := c.Compose(ctx, composer.Input{
			Intent:        bundle.Plan.Intent,
			Style:         bundle.Plan.BlendStyle,
			UserMessage:   message,
			Slots:         bundle.Plan.Slots,
			Facts:         bundle.Facts,
			Failures:      bundle.Failures,
			MixedLanguage: mixed,
		})
		return finalizeTurn(ctx, manager, store, out.Reply, out.Citations)
	})
}

// NewVerifyNode runs the self-check over the composed reply. A fail verdict
// with a usable revision replaces the reply and lands in history as a second
// assistant message; everything else passes through untouched.
func NewVerifyNode(v *verify.Verifier, manager *conversations.Manager, store model.ThreadStore, auto bool, recentTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *model.TurnReply) (*model.TurnReply, error) {
		if !auto || v == nil || reply == nil {
			return reply, nil
		}

		var in verify.Input
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			in = verify.Input{
				ThreadID:    s.ThreadID,
				Facts:       s.Facts,
				SlotsBefore: s.PriorSlots,
			}
			if s.Plan != nil {
				in.LastIntent = s.Plan.Intent
			}
			return nil
		}); err != nil {
			return nil, err
		}
		in.Reply = reply.Reply
		in.Citations = reply.Citations

		turns, err := manager.RecentUserTurns(ctx, reply.ThreadID, recentTurns)
		if err != nil {
			logx.Debug().Err(err).Msg("verification context unavailable")
		}
		in.RecentUserTurns = turns

		res := v.Check(ctx, in)
		if res == nil {
			return reply, nil
		}
		if err := store.SetJSON(ctx, reply.ThreadID, model.DocVerification, res); err != nil {
			logx.Warn().Err(err).Str("thread_id", reply.ThreadID).Msg("failed to persist verification result")
		}

		if res.Verdict == model.VerdictFail && res.RevisedAnswer != "" {
			logx.Info().Str("thread_id", reply.ThreadID).Msg("verification replaced the drafted reply")
			reply.Reply = res.RevisedAnswer
			if err := manager.SaveAssistantReply(ctx, reply.ThreadID, res.RevisedAnswer); err != nil {
				logx.Warn().Err(err).Msg("failed to record revised reply")
			}
		}
		return reply, nil
	})
}

// recordPlan stashes the plan and one decision in the turn state.
func recordPlan(ctx context.Context, plan *model.Plan, action, rationale string, confidence float64) {
	if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		s.Plan = plan
		s.Decide(action, rationale, confidence)
		return nil
	}); err != nil {
		logx.Debug().Err(err).Msg("plan recorded outside graph state")
	}
}

func stateDecide(ctx context.Context, action, rationale string, confidence float64) error {
	return compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		s.Decide(action, rationale, confidence)
		return nil
	})
}

func storePlan(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		s.Plan = plan
		return nil
	}); err != nil {
		return nil, err
	}
	return plan, nil
}

// finalizeTurn persists the receipts bundle, saves the reply to history, and
// shapes the graph output.
func finalizeTurn(ctx context.Context, manager *conversations.Manager, store model.ThreadStore, reply string, citations []string) (*model.TurnReply, error) {
	var threadID string
	var receipt *model.Receipt
	if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		threadID = s.ThreadID
		intent := model.IntentUnknown
		if s.Plan != nil {
			intent = s.Plan.Intent
		}
		receipt = composer.BuildReceipt(threadID, intent, s.Facts, s.Decisions, model.Budget{
			ToolLatencyMS:    s.ToolLatencyMS,
			PromptTokens:     s.PromptTokens,
			CompletionTokens: s.CompletionTokens,
			LLMCostUSD:       s.TotalCostUSD,
		})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("finalize turn: %w", err)
	}

	if err := store.SetJSON(ctx, threadID, model.DocReceipts, receipt); err != nil {
		logx.Warn().Err(err).Str("thread_id", threadID).Msg("failed to persist receipts")
	}
	if err := manager.SaveAssistantReply(ctx, threadID, reply); err != nil {
		return nil, fmt.Errorf("save assistant reply: %w", err)
	}

	return &model.TurnReply{
		ThreadID:  threadID,
		Reply:     reply,
		Citations: citations,
		Receipts:  receipt,
	}, nil
}
