// Command llmtest exercises the configured model providers from a developer
// shell: it drafts one outreach email and answers one patient question so a
// missing API key or a bad model ID shows up before a deploy does.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightsmile/outreach/cmd/mainconfig"
	"github.com/brightsmile/outreach/internal/app/bootstrap"
	appconfig "github.com/brightsmile/outreach/internal/config"
	"github.com/brightsmile/outreach/internal/llm"
	"github.com/brightsmile/outreach/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("load AWS config: %v", err)
	}

	client, model := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if client == nil {
		fmt.Println("❌ No LLM provider configured. Set BEDROCK_MODEL_ID or GEMINI_API_KEY.")
		os.Exit(1)
	}

	divider := strings.Repeat("=", 60)
	fmt.Println(divider)
	fmt.Println("LLM Provider Test")
	fmt.Println(divider)

	question := "How much does a cleaning and exam usually cost?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	req := llm.Request{
		Model: model,
		System: []string{
			"You are a friendly dental clinic assistant. Keep responses brief and helpful.",
		},
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "Hi, I got your reminder about my recall visit."},
			{Role: llm.RoleAssistant, Content: "Welcome back! It has been a little while since your last cleaning. Would you like to pick a time this week?"},
			{Role: llm.RoleUser, Content: question},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	}

	fmt.Printf("\n[1] Completing with model %q...\n", model)
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    ❌ completion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("    ✅ response (%v):\n", elapsed.Round(time.Millisecond))
	for _, line := range strings.Split(strings.TrimSpace(resp.Text), "\n") {
		fmt.Printf("    %s\n", line)
	}
	if resp.StopReason != "" {
		fmt.Printf("    stop reason: %s\n", resp.StopReason)
	}

	fmt.Println("\n" + divider)
	fmt.Println("✅ Provider reachable. Drafts and classification will use it.")
	fmt.Println("   When the primary fails at runtime, watch logs for: 'primary LLM failed, attempting fallback'")
}
