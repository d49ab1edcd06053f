package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BTreeMap/IntentPipe/internal/orchestrator"
	"github.com/BTreeMap/IntentPipe/internal/session"
)

// runREPL drives the decision cascade from stdin for local testing. All turns
// share one session so flows and consent prompts behave as they would over
// the API.
func runREPL(orch *orchestrator.Orchestrator) {
	key := session.GenerateKey()
	fmt.Printf("IntentPipe interactive tester (session %s)\n", key)
	fmt.Println("Type a message, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		result, err := orch.Process(context.Background(), key, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Printf("bot: %s\n", result.Reply)
		detail := fmt.Sprintf("   [source=%s", result.Source)
		if result.Intent != "" {
			detail += " intent=" + result.Intent
		}
		if result.Confidence > 0 {
			detail += fmt.Sprintf(" confidence=%.2f", result.Confidence)
		}
		fmt.Println(detail + "]")
	}
}
