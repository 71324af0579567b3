// Command llmtest exercises the configured text-generation providers with a
// short dive-shop conversation. Useful for checking API keys and the
// Gemini-to-Bedrock fallback chain before deploying.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/nereadiving/dive-ai-assistant/cmd/mainconfig"
	appconfig "github.com/nereadiving/dive-ai-assistant/internal/config"
	"github.com/nereadiving/dive-ai-assistant/internal/conversation"
	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	base, err := knowledge.Load(cfg.KnowledgeDir)
	if err != nil {
		log.Fatalf("load knowledge base: %v", err)
	}
	facts := base.Snapshot("es", 2000)

	req := conversation.LLMRequest{
		System: []string{
			"Eres el asistente de un centro de buceo en la Costa Brava. Responde breve y en español.",
			"Datos del centro:\n" + facts,
		},
		Messages: []conversation.ChatMessage{
			{Role: conversation.ChatRoleUser, Content: "Hola, ¿cuánto cuesta un bautismo de buceo?"},
			{Role: conversation.ChatRoleAssistant, Content: "El bautismo cuesta 75 € e incluye todo el equipo. ¿Te gustaría reservar?"},
			{Role: conversation.ChatRoleUser, Content: "¿Y necesito saber nadar muy bien?"},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	}

	if cfg.GeminiAPIKey != "" {
		fmt.Println("[1] Testing Gemini...")
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			fmt.Printf("    gemini client: %v\n", err)
		} else {
			runOnce(ctx, gemini, req)
		}
	} else {
		fmt.Println("[1] Skipping Gemini (GEMINI_API_KEY not set)")
	}

	if cfg.BedrockModelID != "" {
		fmt.Println("[2] Testing Bedrock Converse...")
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			fmt.Printf("    aws config: %v\n", err)
			os.Exit(1)
		}
		bedrockReq := req
		bedrockReq.Model = cfg.BedrockModelID
		runOnce(ctx, conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg)), bedrockReq)
	} else {
		fmt.Println("[2] Skipping Bedrock (BEDROCK_MODEL_ID not set)")
	}
}

func runOnce(ctx context.Context, client conversation.LLMClient, req conversation.LLMRequest) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    error after %v: %v\n", elapsed.Round(time.Millisecond), err)
		return
	}
	fmt.Printf("    reply (%v): %s\n", elapsed.Round(time.Millisecond), resp.Text)
	fmt.Printf("    tokens: in=%d out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
}
