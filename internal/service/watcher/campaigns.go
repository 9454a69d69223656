package watcher

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nkiryanov/bankmatch/internal/service/varsym"
)

// Campaign is a donation target watched in the background
type Campaign struct {
	EventID        string `yaml:"event_id"`
	VariableSymbol string `yaml:"variable_symbol"`
}

type campaignsFile struct {
	Campaigns []Campaign `yaml:"campaigns"`
}

// LoadCampaigns reads campaigns from a YAML file
func LoadCampaigns(path string) ([]Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read campaigns file: %w", err)
	}

	return ParseCampaigns(raw)
}

func ParseCampaigns(raw []byte) ([]Campaign, error) {
	var f campaignsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("can't parse campaigns: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Campaigns))
	for i, c := range f.Campaigns {
		if strings.TrimSpace(c.EventID) == "" {
			return nil, fmt.Errorf("campaign #%d: event_id is required", i+1)
		}
		if !varsym.IsValid(c.VariableSymbol) {
			return nil, fmt.Errorf("campaign %s: invalid variable_symbol %q", c.EventID, c.VariableSymbol)
		}
		if _, ok := seen[c.EventID]; ok {
			return nil, fmt.Errorf("campaign %s: duplicated event_id", c.EventID)
		}
		seen[c.EventID] = struct{}{}
	}

	return f.Campaigns, nil
}
