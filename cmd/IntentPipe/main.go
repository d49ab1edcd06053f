// IntentPipe routes free-text chat utterances to rules, a statistical intent
// classifier, slot-filling flows, or a generic fallback, tracking per-session
// state across turns.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/api"
	"github.com/BTreeMap/IntentPipe/internal/classifier"
	"github.com/BTreeMap/IntentPipe/internal/engine"
	"github.com/BTreeMap/IntentPipe/internal/flowengine"
	"github.com/BTreeMap/IntentPipe/internal/genai"
	"github.com/BTreeMap/IntentPipe/internal/notify"
	"github.com/BTreeMap/IntentPipe/internal/orchestrator"
	"github.com/BTreeMap/IntentPipe/internal/responses"
	"github.com/BTreeMap/IntentPipe/internal/session"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultConfigDir is the default directory for IntentPipe config data
	DefaultConfigDir = "config"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	orch, err := buildOrchestrator(flags)
	if err != nil {
		slog.Error("Failed to bootstrap IntentPipe", "error", err)
		os.Exit(1)
	}

	if *flags.repl {
		runREPL(orch)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(orch, api.WithAddr(*flags.apiAddr))
	slog.Info("Bootstrapping IntentPipe with configured modules")
	if err := server.Run(ctx); err != nil {
		slog.Error("IntentPipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("IntentPipe exited successfully")
}

// Config holds environment configuration
type Config struct {
	RuleFiles      string
	FlowsDir       string
	IntentMapFile  string
	ResponsesFile  string
	RoutesFile     string
	ClassifierURL  string
	OpenAIKey      string
	APIAddr        string
	SessionTimeout string
	FlowCooldown   string
}

// Flags holds command line flag values
type Flags struct {
	ruleFiles      *string
	flowsDir       *string
	intentMapFile  *string
	responsesFile  *string
	routesFile     *string
	classifierURL  *string
	openaiKey      *string
	apiAddr        *string
	sessionTimeout *string
	flowCooldown   *string
	triggerThresh  *float64
	responseThresh *float64
	softThresh     *float64
	repl           *bool
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		RuleFiles:      os.Getenv("RULE_FILES"),
		FlowsDir:       os.Getenv("FLOWS_DIR"),
		IntentMapFile:  os.Getenv("INTENT_MAP_FILE"),
		ResponsesFile:  os.Getenv("RESPONSES_FILE"),
		RoutesFile:     os.Getenv("ROUTES_FILE"),
		ClassifierURL:  os.Getenv("CLASSIFIER_URL"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		APIAddr:        os.Getenv("API_ADDR"),
		SessionTimeout: os.Getenv("SESSION_TIMEOUT"),
		FlowCooldown:   os.Getenv("FLOW_COOLDOWN"),
	}

	if config.FlowsDir == "" {
		config.FlowsDir = DefaultConfigDir + "/flows"
	}
	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}

	slog.Debug("environment variables loaded",
		"RULE_FILES", config.RuleFiles,
		"FLOWS_DIR", config.FlowsDir,
		"RESPONSES_FILE_SET", config.ResponsesFile != "",
		"ROUTES_FILE_SET", config.RoutesFile != "",
		"CLASSIFIER_URL_SET", config.ClassifierURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		ruleFiles:      flag.String("rules", config.RuleFiles, "comma-separated rule YAML files"),
		flowsDir:       flag.String("flows", config.FlowsDir, "directory of flow definition YAML files"),
		intentMapFile:  flag.String("intent-map", config.IntentMapFile, "intent-to-flow mapping YAML file (built-in map when empty)"),
		responsesFile:  flag.String("responses", config.ResponsesFile, "intent responses YAML file"),
		routesFile:     flag.String("routes", config.RoutesFile, "notification routes YAML file"),
		classifierURL:  flag.String("classifier-url", config.ClassifierURL, "model server prediction endpoint"),
		openaiKey:      flag.String("openai-key", config.OpenAIKey, "OpenAI API key for the fallback responder"),
		apiAddr:        flag.String("addr", config.APIAddr, "API listen address"),
		sessionTimeout: flag.String("session-timeout", config.SessionTimeout, "session expiry (Go duration, default 10m)"),
		flowCooldown:   flag.String("flow-cooldown", config.FlowCooldown, "post-completion flow cooldown (Go duration, default 5m)"),
		triggerThresh:  flag.Float64("trigger-threshold", orchestrator.DefaultTriggerThreshold, "confidence needed to offer a flow"),
		responseThresh: flag.Float64("response-threshold", orchestrator.DefaultResponseThreshold, "confidence needed for a direct ML response"),
		softThresh:     flag.Float64("soft-threshold", 0, "confidence for the soft clarification tier (0 disables)"),
		repl:           flag.Bool("repl", false, "run the interactive CLI tester instead of the API server"),
	}
	flag.Parse()
	return flags
}

// buildOrchestrator wires every component from the parsed configuration.
func buildOrchestrator(flags Flags) (*orchestrator.Orchestrator, error) {
	// Rule engine
	var rulePaths []string
	for _, p := range strings.Split(*flags.ruleFiles, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			rulePaths = append(rulePaths, trimmed)
		}
	}
	rules, err := engine.LoadRules(rulePaths...)
	if err != nil {
		return nil, err
	}
	ruleEngine, err := engine.NewEngine(rules)
	if err != nil {
		return nil, err
	}

	// Flow engine
	flows, err := flowengine.LoadFlowDir(*flags.flowsDir)
	if err != nil {
		return nil, err
	}
	intentMap, err := flowengine.LoadIntentMap(*flags.intentMapFile)
	if err != nil {
		return nil, err
	}
	registry := flowengine.NewRegistry(flows, intentMap)
	flowEngine := flowengine.NewEngine(registry, buildNotifier(flags))

	// Session store
	storeOpts := []session.Option{}
	if timeout := parseDuration(*flags.sessionTimeout, "session-timeout"); timeout > 0 {
		storeOpts = append(storeOpts, session.WithTimeout(timeout))
	}
	sessions := session.NewStore(storeOpts...)

	// Collaborators
	genaiClient := buildGenAIClient(flags)
	clf := buildClassifier(flags, genaiClient, intentMap)
	resolver := buildResolver(flags)
	fallback := buildFallback(genaiClient)

	orchOpts := []orchestrator.Option{
		orchestrator.WithTriggerThreshold(*flags.triggerThresh),
		orchestrator.WithResponseThreshold(*flags.responseThresh),
	}
	if *flags.softThresh > 0 {
		orchOpts = append(orchOpts, orchestrator.WithSoftThreshold(*flags.softThresh))
	}
	if cooldown := parseDuration(*flags.flowCooldown, "flow-cooldown"); cooldown > 0 {
		orchOpts = append(orchOpts, orchestrator.WithCooldown(cooldown))
	}

	return orchestrator.New(sessions, ruleEngine, flowEngine, clf, resolver, fallback, orchOpts...), nil
}

// buildNotifier assembles the post-flow dispatcher from whichever channel
// senders have credentials configured. Without a routes file, completions
// simply log and skip dispatch.
func buildNotifier(flags Flags) flowengine.Notifier {
	if *flags.routesFile == "" {
		slog.Info("No routes file configured, post-flow notifications disabled")
		return nil
	}
	routes, err := notify.LoadRoutes(*flags.routesFile)
	if err != nil {
		slog.Error("Failed to load notification routes, notifications disabled", "error", err)
		return nil
	}

	senders := map[string]notify.Sender{
		notify.ChannelWebhook: notify.NewWebhookSender(),
	}
	if email, err := notify.NewEmailSender(); err != nil {
		slog.Warn("Email sender unavailable", "error", err)
	} else {
		senders[notify.ChannelEmail] = email
	}
	if sms, err := notify.NewSMSSender(); err != nil {
		slog.Warn("SMS sender unavailable", "error", err)
	} else {
		senders[notify.ChannelSMS] = sms
	}

	return notify.NewDispatcher(routes, senders)
}

func buildGenAIClient(flags Flags) *genai.Client {
	if *flags.openaiKey == "" {
		return nil
	}
	client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Warn("GenAI client unavailable", "error", err)
		return nil
	}
	return client
}

// buildClassifier prefers the model server; a GenAI classifier covers
// deployments without one, and a static classifier keeps the cascade
// functional (rule and fallback tiers only) with neither.
func buildClassifier(flags Flags, genaiClient *genai.Client, intentMap map[string]string) classifier.Classifier {
	if *flags.classifierURL != "" {
		clf, err := classifier.NewHTTPClassifier(classifier.WithEndpoint(*flags.classifierURL))
		if err == nil {
			return clf
		}
		slog.Warn("HTTP classifier unavailable", "error", err)
	}
	if genaiClient != nil {
		intents := make([]string, 0, len(intentMap))
		for intent := range intentMap {
			intents = append(intents, intent)
		}
		return classifier.NewGenAIClassifier(genaiClient, intents)
	}
	slog.Warn("No classifier configured, ML tiers disabled")
	return &classifier.Static{}
}

func buildResolver(flags Flags) orchestrator.ResponseResolver {
	if *flags.responsesFile == "" {
		slog.Info("No responses file configured, direct ML responses disabled")
		return responses.NewResolver(nil)
	}
	resolver, err := responses.LoadResolver(*flags.responsesFile)
	if err != nil {
		slog.Error("Failed to load responses file", "error", err)
		return responses.NewResolver(nil)
	}
	return resolver
}

func buildFallback(genaiClient *genai.Client) orchestrator.Responder {
	if genaiClient != nil {
		return orchestrator.NewGenAIResponder(genaiClient)
	}
	return &orchestrator.StaticResponder{}
}

// parseDuration parses a Go duration string, also accepting bare seconds for
// compatibility with older deployments.
func parseDuration(value, name string) time.Duration {
	if value == "" {
		return 0
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("Invalid duration, using default", "flag", name, "value", value)
	return 0
}
