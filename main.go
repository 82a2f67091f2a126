package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tripdesk-core/server/internal/assistant/graph"
	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/repo"
	"github.com/tripdesk-core/server/internal/core"
	logx "github.com/tripdesk-core/server/pkg/logger"
	pkgredis "github.com/tripdesk-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Classifier   model.ClassifierModelConfig
	Writer       model.WriterModelConfig
	Cascade      model.CascadeConfig
	Consent      model.ConsentConfig
	Composer     model.ComposerConfig
	Verifier     model.VerifierConfig
	Resilience   model.ResilienceConfig
	Conversation model.ConversationConfig
}

func main() {
	fmt.Println("TripDesk travel assistant demo")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	store, closeStore := buildThreadStore(&envCfg)
	defer closeStore()

	engine, err := graph.NewEngine(ctx, graph.Config{
		APIKey:       envCfg.APIKey,
		BaseURL:      envCfg.BaseURL,
		Classifier:   envCfg.Classifier,
		Writer:       envCfg.Writer,
		Cascade:      envCfg.Cascade,
		Consent:      envCfg.Consent,
		Composer:     envCfg.Composer,
		Verifier:     envCfg.Verifier,
		Resilience:   envCfg.Resilience,
		Conversation: envCfg.Conversation,
		Store:        store,
	})
	if err != nil {
		log.Fatalf("Failed to build turn engine: %v", err)
	}

	runThread(ctx, engine, "demo-facts-001", []demoTurn{
		{
			description: "Fresh thread: city and immediate time in one message",
			message:     "Weather in Paris today?",
		},
		{
			description: "Slot carry-over: packing reuses the remembered city and month",
			message:     "What should I pack?",
		},
		{
			description: "Receipts for the last answer",
			message:     "/why",
		},
	})

	runThread(ctx, engine, "demo-consent-001", []demoTurn{
		{
			description: "Airline vocabulary without dates arms the consent gate",
			message:     "What airlines fly to Lisbon in winter?",
		},
		{
			description: "Consent accepted: the stored query goes to web search",
			message:     "yes",
		},
		{
			description: "Receipts for the researched answer",
			message:     "/why",
		},
	})

	fmt.Println("\nDemo finished.")
}

type demoTurn struct {
	description string
	message     string
}

func runThread(ctx context.Context, engine *graph.Engine, threadID string, turns []demoTurn) {
	fmt.Printf("\n=== Thread %s ===\n", threadID)
	for i, turn := range turns {
		fmt.Printf("\nTurn %d: %s\n", i+1, turn.description)
		fmt.Printf("User: %s\n", turn.message)

		reply, err := engine.HandleTurn(ctx, threadID, turn.message)
		if err != nil {
			log.Fatalf("Turn %d on %s failed: %v", i+1, threadID, err)
		}

		fmt.Printf("Assistant: %s\n", reply.Reply)
		if len(reply.Citations) > 0 {
			fmt.Printf("Sources: %v\n", reply.Citations)
		}
		fmt.Println("------------------------------------------------")

		// slight delay between turns for readability
		time.Sleep(300 * time.Millisecond)
	}
}

// buildThreadStore prefers Redis and falls back to the in-process store so
// the demo runs without any infrastructure.
func buildThreadStore(cfg *AppConfig) (model.ThreadStore, func()) {
	rdb, err := cfg.Redis.New()
	if err != nil {
		if err == pkgredis.ErrNotConfigured {
			log.Printf("REDIS_URL not set, using the in-memory thread store")
		} else {
			log.Printf("Warning: Redis unavailable (%v), using the in-memory thread store", err)
		}
		return repo.NewMemoryThreadStore(), func() {}
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Printf("Warning: invalid CONVERSATION_TTL %q, threads will not expire", cfg.Conversation.TTL)
		ttl = 0
	}
	fmt.Println("Connected to Redis successfully")
	return repo.NewRedisThreadStore(rdb, ttl), func() { _ = rdb.Close() }
}
