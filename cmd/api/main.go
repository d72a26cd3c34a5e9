package main

import (
	"bufio"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	apiconfig "agentic_debate/pkg/api/config"
	apidebate "agentic_debate/pkg/api/debate"
	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/consult"
	"agentic_debate/pkg/core/cost"
	"agentic_debate/pkg/core/hedge"
	"agentic_debate/pkg/core/prompt"
	"agentic_debate/pkg/core/pulse"
	"agentic_debate/pkg/core/store"
)

func main() {
	godotenv.Load()

	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		fmt.Printf("[WARNING] Failed to load prompt library: %v\n", err)
		fmt.Println("  Falling back to hardcoded prompts")
	} else {
		fmt.Printf("[PROMPT] Loaded %d prompts from %s\n", prompt.Get().Count(), resourcesPath)
	}

	configData, err := ioutil.ReadFile("config/models.yaml")
	if err != nil {
		fmt.Printf("[FATAL] Failed to read config/models.yaml: %v\n", err)
		os.Exit(1)
	}
	var agentCfg agent.Config
	if err := yaml.Unmarshal(configData, &agentCfg); err != nil {
		fmt.Printf("[FATAL] Failed to parse config/models.yaml: %v\n", err)
		os.Exit(1)
	}
	agentMgr, err := agent.NewManager(agentCfg)
	if err != nil {
		fmt.Printf("[FATAL] Failed to build agent manager: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var eventLog consult.EventSubscriber
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Event log disabled: %v\n", err)
		} else {
			fmt.Println("[STORE] Postgres event log enabled")
			eventLog = store.NewEventLog(store.GetPool())
		}
	}

	engineCfg := consult.DefaultEngineConfig()
	engine := consult.NewEngine(ctx, agentMgr, engineCfg, nil, terminalHedgePrompt, terminalPulsePrompt, terminalCostConsent, eventLog)
	registry := consult.NewRegistry(engine)

	configHandler := apiconfig.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)

	debateHandler := apidebate.NewHandler(registry)
	http.HandleFunc("/api/debate/start", debateHandler.HandleStart)
	http.HandleFunc("/api/debate/stream", debateHandler.HandleStream)
	http.HandleFunc("/api/debate/result", debateHandler.HandleResult)

	fmt.Println("API server starting on :8080...")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/debate/start")
	fmt.Println("  - GET  /api/debate/stream?id=...")
	fmt.Println("  - GET  /api/debate/result?id=...")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// terminalHedgePrompt, terminalPulsePrompt, and terminalCostConsent back the
// engine's three human-in-the-loop hooks with a stdin/stdout prompt. The
// engine calls the hedge and pulse hooks whenever a hedged call fails
// completely or an agent call passes the pulse threshold, whatever
// Options.Interactive says. Options.Interactive only affects the cost gate:
// a non-interactive consultation with CostConsent set uses that answer
// instead of terminalCostConsent. HandleStart does not set CostConsent.
func terminalHedgePrompt(ctx context.Context, agentID, candidateProviderID string) hedge.Choice {
	fmt.Printf("[HEDGE] Both providers failed for agent %q (next candidate %q). (s)ubstitute / (k)skip / (a)bort? ", agentID, candidateProviderID)
	switch readLine() {
	case "s":
		return hedge.ChoiceSubstitute
	case "a":
		return hedge.ChoiceAbort
	default:
		return hedge.ChoiceSkip
	}
}

func terminalPulsePrompt(ctx context.Context, agentID string, elapsed time.Duration) bool {
	fmt.Printf("[PULSE] Agent %q has been thinking for %s. Keep waiting? (Y/n) ", agentID, elapsed.Round(time.Second))
	answer := readLine()
	return answer == "" || strings.EqualFold(answer, "y")
}

func terminalCostConsent(ctx context.Context, estimate cost.Estimate) bool {
	fmt.Printf("[COST] Estimated cost $%.4f (%d tokens). Proceed? (Y/n) ", estimate.USD, estimate.Tokens.Total)
	answer := readLine()
	return answer == "" || strings.EqualFold(answer, "y")
}

var stdin = bufio.NewReader(os.Stdin)

func readLine() string {
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}
