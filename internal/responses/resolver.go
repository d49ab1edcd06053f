// Package responses provides the canned-response resolver for classified intents.
//
// Responses are loaded once at startup from a YAML file mapping each intent
// to a pool of candidate messages; Resolve draws one uniformly at random.
package responses

import (
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/BTreeMap/IntentPipe/internal/models"
	"gopkg.in/yaml.v3"
)

// intentBlock is the YAML shape of one intent's response pool.
type intentBlock struct {
	Messages []string `yaml:"messages"`
}

// Resolver maps intents to canned response pools.
type Resolver struct {
	pools map[string][]string
}

// NewResolver creates a resolver over an in-memory intent-to-messages map.
func NewResolver(pools map[string][]string) *Resolver {
	return &Resolver{pools: pools}
}

// LoadResolver reads the intent responses YAML file at path.
func LoadResolver(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewConfigError("reading responses file %s: %v", path, err)
	}
	var raw map[string]intentBlock
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, models.NewConfigError("parsing responses file %s: %v", path, err)
	}
	pools := make(map[string][]string, len(raw))
	for intent, block := range raw {
		if len(block.Messages) > 0 {
			pools[intent] = block.Messages
		}
	}
	slog.Info("responses.LoadResolver: responses loaded", "path", path, "intents", len(pools))
	return &Resolver{pools: pools}, nil
}

// Resolve returns a canned response for intent, chosen uniformly at random
// from its pool. An empty string means no canned response exists, which
// forces fallback even at high confidence.
func (r *Resolver) Resolve(intent string) string {
	pool, ok := r.pools[intent]
	if !ok || len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))]
}
