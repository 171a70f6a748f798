// dummy-llm is a stand-in for the real `llm` CLI used in manual testing
// and demos. It understands the three invocations the application makes:
//
//	dummy-llm aliases
//	dummy-llm logs list --json
//	dummy-llm -m <model> <prompt>
//
// DUMMY_LLM_MODE selects the behavior of the prompt invocation:
// happy (default), error, stuck, scripted.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

type logEntry struct {
	ConversationID   string `json:"conversation_id"`
	ConversationName string `json:"conversation_name"`
	Model            string `json:"model"`
	Prompt           string `json:"prompt"`
	Response         string `json:"response"`
}

func main() {
	model := flag.String("m", "", "Model alias")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "aliases":
			printAliases()
			return
		case "logs":
			printLogs()
			return
		}
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dummy-llm [-m model] <prompt>")
		os.Exit(2)
	}

	prompt := strings.Join(args, " ")
	mode := strings.ToLower(os.Getenv("DUMMY_LLM_MODE"))
	if mode == "" {
		mode = "happy"
	}

	switch mode {
	case "error":
		fmt.Fprintln(os.Stderr, "Error: model quota exhausted")
		os.Exit(1)
	case "stuck":
		select {}
	case "scripted":
		printScripted(os.Getenv("DUMMY_LLM_SCRIPT"))
	default:
		printHappy(*model, prompt)
	}
}

func printAliases() {
	fmt.Println("haiku : anthropic/claude-haiku")
	fmt.Println("sonnet : anthropic/claude-sonnet")
	fmt.Println("4o-mini : openai/gpt-4o-mini")
}

func printLogs() {
	entries := []logEntry{
		{ConversationID: "c1", ConversationName: "greetings", Model: "haiku", Prompt: "hello", Response: "Hi there!"},
		{ConversationID: "c1", ConversationName: "greetings", Model: "haiku", Prompt: "bye", Response: "Goodbye!"},
		{ConversationID: "c2", ConversationName: "math", Model: "sonnet", Prompt: "2+2?", Response: "4"},
	}
	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}

// printHappy streams a short reply word by word, like a real model turn.
func printHappy(model, prompt string) {
	reply := fmt.Sprintf("You asked %q and %s has no idea, but here is a confident answer anyway.", prompt, model)
	if model == "" {
		reply = fmt.Sprintf("You asked %q. Try passing -m next time.", prompt)
	}
	for _, word := range strings.Fields(reply) {
		fmt.Print(word, " ")
		os.Stdout.Sync()
		time.Sleep(80 * time.Millisecond)
	}
	fmt.Println()
}

// printScripted emits lines from DUMMY_LLM_SCRIPT, semicolon separated,
// one per 100ms. Useful for deterministic streaming tests.
func printScripted(script string) {
	if script == "" {
		script = "line one;line two;line three"
	}
	for _, line := range strings.Split(script, ";") {
		fmt.Println(line)
		time.Sleep(100 * time.Millisecond)
	}
}
