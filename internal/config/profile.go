package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProfileProduction is the fallback environment profile.
const ProfileProduction = "production"

// Profile holds the environment-specific values from env.json.
type Profile struct {
	RootURL string `json:"root_url"`
}

// LoadProfile reads the environment-keyed JSON file and selects the entry
// named mode. An empty or unknown mode, a missing file or malformed JSON all
// fall back to the production entry; the returned error explains a fallback
// that was not simply an empty mode and is meant to be logged, not returned.
func LoadProfile(file, mode string) (Profile, string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Profile{}, ProfileProduction, fmt.Errorf("read %s: %w", file, err)
	}
	return ResolveProfile(data, mode)
}

// ResolveProfile selects mode from an environment-keyed JSON document.
func ResolveProfile(data []byte, mode string) (Profile, string, error) {
	var profiles map[string]Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return Profile{}, ProfileProduction, fmt.Errorf("parse env profiles: %w", err)
	}
	if p, ok := profiles[mode]; ok && mode != "" {
		return p, mode, nil
	}
	var fallbackErr error
	if mode != "" {
		fallbackErr = fmt.Errorf("unknown environment %q", mode)
	}
	p, ok := profiles[ProfileProduction]
	if !ok {
		return Profile{}, ProfileProduction, fmt.Errorf("no %q profile defined", ProfileProduction)
	}
	return p, ProfileProduction, fallbackErr
}
