package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/tripdesk-core/server/internal/assistant/classify"
	composer "github.com/tripdesk-core/server/internal/assistant/compose"
	"github.com/tripdesk-core/server/internal/assistant/consent"
	"github.com/tripdesk-core/server/internal/assistant/dispatch"
	"github.com/tripdesk-core/server/internal/assistant/graph/conversations"
	"github.com/tripdesk-core/server/internal/assistant/graph/nodes"
	"github.com/tripdesk-core/server/internal/assistant/graph/observers"
	"github.com/tripdesk-core/server/internal/assistant/graph/tools"
	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
	"github.com/tripdesk-core/server/internal/assistant/verify"
	"github.com/tripdesk-core/server/internal/resilience"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

const defaultConsentAsk = "I can run a live web search for that. Want me to go ahead and look up %q?"

// Config holds everything needed to build the turn engine end-to-end,
// including real chat models. This is the production entry; tests assemble
// Components directly with fakes.
type Config struct {
	APIKey  string
	BaseURL string

	Classifier   model.ClassifierModelConfig
	Writer       model.WriterModelConfig
	Cascade      model.CascadeConfig
	Consent      model.ConsentConfig
	Composer     model.ComposerConfig
	Verifier     model.VerifierConfig
	Resilience   model.ResilienceConfig
	Conversation model.ConversationConfig

	Store model.ThreadStore
}

// Components are the assembled collaborators of the turn graph.
type Components struct {
	Store      model.ThreadStore
	Memory     *slots.Memory
	Manager    *conversations.Manager
	Cascade    *classify.Cascade
	Gate       *consent.Gate
	Dispatcher *dispatch.Dispatcher
	Composer   *composer.Composer
	Verifier   *verify.Verifier

	ConsentAsk  string
	AutoVerify  bool
	RecentTurns int
}

// Engine answers turns. One engine serves many threads concurrently;
// per-thread writes are last-write-wins, so callers serialize turns within
// a single thread.
type Engine struct {
	runner compose.Runnable[model.TurnInput, *model.TurnReply]
	store  model.ThreadStore
}

// GraphBuilder wires the turn graph from assembled components.
type GraphBuilder struct {
	comps *Components
	graph *compose.Graph[model.TurnInput, *model.TurnReply]
}

// NewEngine builds the full production engine: Gemini chat models, the
// classification cascade, consent gate, resilient tool dispatch, composer,
// and verifier, compiled into one turn graph.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("thread store is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: &cfg.Classifier,
		Writer:     &cfg.Writer,
	})
	if err != nil {
		return nil, err
	}

	memory := slots.NewMemory(cfg.Store)
	manager := conversations.NewManager(cfg.Store, cfg.Conversation)
	usage := stateUsageHook()

	llmTimeout := parseDurationOr(cfg.Cascade.LLMTimeout, 8*time.Second)
	cacheTTL := parseDurationOr(cfg.Cascade.CacheTTL, 5*time.Minute)
	cascade := classify.NewCascade(
		classify.NewLocalClassifier(nil),
		classify.NewLLMClassifier(cms.Classifier, cms.ClassifierModelName, llmTimeout, usage),
		classify.NewRuleClassifier(),
		classify.NewCache(cfg.Cascade.CacheSize, cacheTTL),
		cfg.Cascade.LocalMinConfidence,
		cfg.Cascade.LLMMinConfidence,
	)

	gate := consent.New(memory, cms.Classifier, cms.ClassifierModelName, usage)

	exec := resilience.NewExecutor(executorOptions(cfg.Resilience))
	travelTools, err := tools.GetTravelTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("build travel tools: %w", err)
	}
	if infos, err := tools.GetToolInfos(ctx, travelTools); err == nil {
		names := make([]string, 0, len(infos))
		for _, info := range infos {
			names = append(names, info.Name)
		}
		logx.Info().Strs("tools", names).Msg("travel tool catalog registered")
	}
	dispatcher, err := dispatch.New(ctx, exec, travelTools)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	return AssembleEngine(ctx, &Components{
		Store:      cfg.Store,
		Memory:     memory,
		Manager:    manager,
		Cascade:    cascade,
		Gate:       gate,
		Dispatcher: dispatcher,
		Composer:   composer.New(cms.Writer, cms.WriterModelName, cfg.Composer.AssistantName, usage),
		Verifier:   verify.New(cms.Writer, cms.WriterModelName, cfg.Store, cfg.Verifier, usage),

		ConsentAsk:  cfg.Consent.AskTemplate,
		AutoVerify:  cfg.Verifier.Auto,
		RecentTurns: cfg.Conversation.History.MaxTurns,
	})
}

// AssembleEngine compiles the turn graph from pre-built components.
func AssembleEngine(ctx context.Context, comps *Components) (*Engine, error) {
	if comps == nil {
		return nil, fmt.Errorf("components are nil")
	}
	if comps.Store == nil || comps.Memory == nil || comps.Manager == nil {
		return nil, fmt.Errorf("store, memory, and manager are required")
	}
	if comps.Cascade == nil || comps.Gate == nil || comps.Dispatcher == nil || comps.Composer == nil {
		return nil, fmt.Errorf("cascade, gate, dispatcher, and composer are required")
	}
	if comps.ConsentAsk == "" {
		comps.ConsentAsk = defaultConsentAsk
	}
	if comps.RecentTurns <= 0 {
		comps.RecentTurns = 6
	}

	builder := &GraphBuilder{
		comps: comps,
		graph: compose.NewGraph[model.TurnInput, *model.TurnReply](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := builder.compile(ctx)
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("turn graph built successfully")
	return &Engine{runner: runnable, store: comps.Store}, nil
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	c := b.comps

	b.graph.AddLambdaNode(nodes.NodeGate,
		nodes.NewGateNode(c.Gate, c.Memory, c.Manager),
		compose.WithStatePreHandler(nodes.NewGatePreHandler()),
	)
	b.graph.AddLambdaNode(nodes.NodeClassify, nodes.NewClassifyNode(c.Cascade, c.Memory))
	b.graph.AddLambdaNode(nodes.NodeRouter, nodes.NewRouterNode(c.Memory, c.Gate))
	b.graph.AddLambdaNode(nodes.NodeClarify, nodes.NewClarifyNode(c.Manager, c.Store))
	b.graph.AddLambdaNode(nodes.NodeConsentAsk, nodes.NewConsentAskNode(c.Gate, c.Manager, c.Store, c.ConsentAsk))
	b.graph.AddLambdaNode(nodes.NodeDecline, nodes.NewDeclineNode(c.Manager, c.Store))
	b.graph.AddLambdaNode(nodes.NodeDispatch, nodes.NewDispatchNode(c.Dispatcher))
	b.graph.AddLambdaNode(nodes.NodeCompose, nodes.NewComposeNode(c.Composer, c.Manager, c.Store))
	b.graph.AddLambdaNode(nodes.NodeVerify, nodes.NewVerifyNode(c.Verifier, c.Manager, c.Store, c.AutoVerify, c.RecentTurns))
}

// addEdges creates the unconditional flow connections.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeGate},
		{nodes.NodeClassify, nodes.NodeRouter},
		{nodes.NodeDispatch, nodes.NodeCompose},
		{nodes.NodeCompose, nodes.NodeVerify},
		{nodes.NodeVerify, compose.END},
		{nodes.NodeClarify, compose.END},
		{nodes.NodeConsentAsk, compose.END},
		{nodes.NodeDecline, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branches.
func (b *GraphBuilder) addBranches() error {
	gateBranch := compose.NewGraphBranch(
		nodes.NewGateCondition(),
		map[string]bool{
			nodes.NodeClassify: true,
			nodes.NodeDispatch: true,
			nodes.NodeDecline:  true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeGate, gateBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding consent gate branch")
		return fmt.Errorf("error adding consent gate branch: %w", err)
	}

	routerBranch := compose.NewGraphBranch(
		nodes.NewRouterCondition(),
		map[string]bool{
			nodes.NodeClarify:    true,
			nodes.NodeConsentAsk: true,
			nodes.NodeDispatch:   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouter, routerBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding router branch")
		return fmt.Errorf("error adding router branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnReply], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling turn graph")
		return nil, fmt.Errorf("error compiling turn graph: %w", err)
	}
	return runnable, nil
}

// HandleTurn answers one message on a thread. An empty threadID starts a
// fresh thread. Empty input short-circuits to a fixed help message without
// touching thread state, and "/why" explains the last answered turn without
// producing a new one.
func (e *Engine) HandleTurn(ctx context.Context, threadID, message string) (*model.TurnReply, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return &model.TurnReply{ThreadID: threadID, Reply: composer.HelpReply()}, nil
	}
	if trimmed == "/why" {
		return e.explain(ctx, threadID)
	}

	out, err := e.runner.Invoke(ctx,
		model.TurnInput{ThreadID: threadID, Message: message},
		compose.WithCallbacks(observers.NewAllCallbacks()),
	)
	if err != nil {
		return nil, fmt.Errorf("handle turn: %w", err)
	}
	return out, nil
}

// ClearThread drops everything stored for the thread.
func (e *Engine) ClearThread(ctx context.Context, threadID string) error {
	return e.store.Clear(ctx, threadID)
}

// explain serves the /why command from the persisted receipts bundle.
func (e *Engine) explain(ctx context.Context, threadID string) (*model.TurnReply, error) {
	var receipt model.Receipt
	ok, err := e.store.GetJSON(ctx, threadID, model.DocReceipts, &receipt)
	if err != nil {
		return nil, fmt.Errorf("load receipts: %w", err)
	}
	if !ok {
		return &model.TurnReply{
			ThreadID: threadID,
			Reply:    "Nothing to explain yet. Ask me a travel question first.",
		}, nil
	}

	reply := formatReceipt(&receipt)
	var verification model.VerificationResult
	if ok, err := e.store.GetJSON(ctx, threadID, model.DocVerification, &verification); err == nil && ok {
		reply += fmt.Sprintf("\nVerification: %s.", verification.Verdict)
	}

	return &model.TurnReply{ThreadID: threadID, Reply: reply, Receipts: &receipt}, nil
}

func formatReceipt(r *model.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is how I built the last answer (intent: %s).\n", r.Intent)

	if len(r.Facts) > 0 {
		b.WriteString("Facts used:\n")
		for _, f := range r.Facts {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Source, f.Key)
		}
	} else {
		b.WriteString("No external facts were needed.\n")
	}

	if len(r.Decisions) > 0 {
		b.WriteString("Decisions:\n")
		for _, d := range r.Decisions {
			if d.Rationale != "" {
				fmt.Fprintf(&b, "- %s: %s\n", d.Action, d.Rationale)
			} else {
				fmt.Fprintf(&b, "- %s\n", d.Action)
			}
		}
	}

	fmt.Fprintf(&b, "Budget: tools %dms, tokens %d in / %d out, ~$%.4f.",
		r.Budget.ToolLatencyMS, r.Budget.PromptTokens, r.Budget.CompletionTokens, r.Budget.LLMCostUSD)
	return b.String()
}

// stateUsageHook accumulates token usage and model cost into the turn state
// when one is in scope, and logs it either way.
func stateUsageHook() model.UsageHook {
	return func(ctx context.Context, modelName string, usage *schema.TokenUsage) {
		if usage == nil {
			return
		}
		_, _, totalCost := model.ComputeCost(usage, model.ResolvePricing(modelName))
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.PromptTokens += usage.PromptTokens
			s.CompletionTokens += usage.CompletionTokens
			s.TotalCostUSD += totalCost
			return nil
		}); err != nil {
			logx.Debug().Err(err).Msg("usage recorded outside a turn")
		}
		logx.Debug().
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("total_cost_usd", totalCost).
			Msg("LLM usage")
	}
}

// executorOptions maps env-level resilience config onto executor defaults.
func executorOptions(cfg model.ResilienceConfig) resilience.Options {
	opts := resilience.DefaultOptions()
	if cfg.FailureThreshold > 0 {
		opts.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.SuccessThreshold > 0 {
		opts.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.MaxConcurrent > 0 {
		opts.MaxConcurrent = cfg.MaxConcurrent
	}
	if cfg.MaxRetries >= 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	opts.ResetTimeout = parseDurationOr(cfg.ResetTimeout, opts.ResetTimeout)
	opts.MinInterval = parseDurationOr(cfg.MinInterval, opts.MinInterval)
	opts.Timeout = parseDurationOr(cfg.Timeout, opts.Timeout)
	opts.InitialBackoff = parseDurationOr(cfg.InitialBackoff, opts.InitialBackoff)
	opts.MaxBackoff = parseDurationOr(cfg.MaxBackoff, opts.MaxBackoff)
	return opts
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logx.Warn().Str("value", s).Msg("invalid duration, keeping default")
		return fallback
	}
	return d
}
