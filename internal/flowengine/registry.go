// Package flowengine implements the slot-filling dialog state machine for IntentPipe.
//
// Flow definitions are loaded once at startup from YAML files and looked up
// through an intent-to-flow mapping; several intents may share one flow. The
// loaded set is immutable for the process lifetime.
package flowengine

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"gopkg.in/yaml.v3"
)

// Registry maps intents to flow definitions.
type Registry struct {
	flows        map[string]models.FlowDefinition
	intentToFlow map[string]string
}

// NewRegistry creates a registry over the given flows and intent mapping.
func NewRegistry(flows map[string]models.FlowDefinition, intentToFlow map[string]string) *Registry {
	slog.Debug("flowengine.NewRegistry: registry ready", "flows", len(flows), "intents", len(intentToFlow))
	return &Registry{flows: flows, intentToFlow: intentToFlow}
}

// FlowForIntent returns the flow definition registered for intent.
func (r *Registry) FlowForIntent(intent string) (models.FlowDefinition, bool) {
	name, ok := r.intentToFlow[intent]
	if !ok {
		return models.FlowDefinition{}, false
	}
	def, ok := r.flows[name]
	return def, ok
}

// HasFlow reports whether intent maps to a loaded flow.
func (r *Registry) HasFlow(intent string) bool {
	_, ok := r.FlowForIntent(intent)
	return ok
}

// IntentsWithFlows returns all intents that map to a loaded flow, sorted.
func (r *Registry) IntentsWithFlows() []string {
	var intents []string
	for intent := range r.intentToFlow {
		if _, ok := r.flows[r.intentToFlow[intent]]; ok {
			intents = append(intents, intent)
		}
	}
	sort.Strings(intents)
	return intents
}

// FlowNames returns the names of all loaded flows, sorted.
func (r *Registry) FlowNames() []string {
	var names []string
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFlowDir loads every .yaml/.yml file in dir as a flow definition. The
// flow name is the file basename without extension. A missing directory
// yields an empty set, not an error.
func LoadFlowDir(dir string) (map[string]models.FlowDefinition, error) {
	flows := make(map[string]models.FlowDefinition)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("flowengine.LoadFlowDir: flow directory not found", "dir", dir)
			return flows, nil
		}
		return nil, models.NewConfigError("reading flow directory %s: %v", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, models.NewConfigError("reading flow file %s: %v", name, err)
		}
		var def models.FlowDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, models.NewConfigError("parsing flow file %s: %v", name, err)
		}
		flowName := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		def.Name = flowName
		flows[flowName] = def
		slog.Debug("flowengine.LoadFlowDir: loaded flow", "flow", flowName, "steps", len(def.Steps))
	}

	slog.Info("flowengine.LoadFlowDir: flows loaded", "dir", dir, "count", len(flows))
	return flows, nil
}

// intentMapFile is the YAML shape of an intent mapping file.
type intentMapFile struct {
	Intents map[string]string `yaml:"intents"`
}

// LoadIntentMap loads the intent-to-flow mapping from path. An empty path
// returns DefaultIntentMap.
func LoadIntentMap(path string) (map[string]string, error) {
	if path == "" {
		return DefaultIntentMap(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigError("reading intent map %s: %v", path, err)
	}
	var f intentMapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, models.NewConfigError("parsing intent map %s: %v", path, err)
	}
	if len(f.Intents) == 0 {
		return nil, models.NewConfigError("intent map %s declares no intents", path)
	}
	return f.Intents, nil
}

// DefaultIntentMap returns the built-in intent-to-flow mapping.
func DefaultIntentMap() map[string]string {
	return map[string]string{
		"demo_request":              "demo_booking_flow",
		"job_application":           "job_application_flow",
		"internship_application":    "internship_application_flow",
		"free_trial_request":        "free_trial_flow",
		"sales_lead_inquiry":        "sales_lead_flow",
		"technical_support":         "technical_support_contact",
		"sales_contact_request":     "sales_lead_flow",
		"partnership_inquiry":       "sales_lead_flow",
		"lead_qualification_signal": "sales_lead_flow",
	}
}
