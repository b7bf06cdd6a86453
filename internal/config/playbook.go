package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bentacars/qualifier/internal/qualify"
)

// Playbook is the optional YAML file that tunes the qualification engine
// without a redeploy. Unset fields keep the environment or built-in value.
type Playbook struct {
	Order            []string          `yaml:"order"`
	LocationOptional *bool             `yaml:"location_optional"`
	InferLocation    *bool             `yaml:"infer_location"`
	Models           map[string]string `yaml:"models"`
	Cities           map[string]string `yaml:"cities"`
	ForbiddenTerms   []string          `yaml:"forbidden_terms"`
	PhraseTimeout    string            `yaml:"phrase_timeout"`
}

var slotAliases = map[string]qualify.Slot{
	"vehicle":               qualify.SlotVehicle,
	"model":                 qualify.SlotVehicle,
	"payment":               qualify.SlotPaymentMode,
	"payment_mode":          qualify.SlotPaymentMode,
	"budget":                qualify.SlotBudget,
	"budget_or_downpayment": qualify.SlotBudget,
	"location":              qualify.SlotLocation,
	"timeline":              qualify.SlotTimeline,
}

// LoadPlaybook reads a playbook file. An empty path yields (nil, nil); a
// missing file is an error since it was asked for explicitly.
func LoadPlaybook(path string) (*Playbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading playbook %s: %w", path, err)
	}
	var pb Playbook
	if err := yaml.Unmarshal(b, &pb); err != nil {
		return nil, fmt.Errorf("config: parsing playbook %s: %w", path, err)
	}
	return &pb, nil
}

// EngineConfig builds the engine configuration from the environment and an
// optional playbook, which wins where it sets a value.
func (c *Config) EngineConfig(pb *Playbook) (qualify.Config, error) {
	out := qualify.DefaultConfig()
	out.LocationOptional = c.LocationOptional
	out.InferLocation = c.InferLocation
	if len(c.ForbiddenTerms) > 0 {
		out.ForbiddenTerms = append([]string(nil), c.ForbiddenTerms...)
	}
	if c.PhraseTimeout > 0 {
		out.PhraseTimeout = c.PhraseTimeout
	}
	if pb == nil {
		return out, nil
	}

	if len(pb.Order) > 0 {
		order := make([]qualify.Slot, 0, len(pb.Order))
		for _, name := range pb.Order {
			slot, ok := slotAliases[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return qualify.Config{}, fmt.Errorf("config: unknown slot %q in playbook order", name)
			}
			order = append(order, slot)
		}
		out.Order = order
	}
	if pb.LocationOptional != nil {
		out.LocationOptional = *pb.LocationOptional
	}
	if pb.InferLocation != nil {
		out.InferLocation = *pb.InferLocation
	}
	if len(pb.Models) > 0 {
		out.ExtraModels = pb.Models
	}
	if len(pb.Cities) > 0 {
		out.ExtraCities = pb.Cities
	}
	if len(pb.ForbiddenTerms) > 0 {
		out.ForbiddenTerms = append(out.ForbiddenTerms, pb.ForbiddenTerms...)
	}
	if pb.PhraseTimeout != "" {
		d, err := time.ParseDuration(pb.PhraseTimeout)
		if err != nil || d <= 0 {
			return qualify.Config{}, fmt.Errorf("config: invalid phrase_timeout %q", pb.PhraseTimeout)
		}
		out.PhraseTimeout = d
	}
	return out, nil
}
