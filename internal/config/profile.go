package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/profile"
	"gopkg.in/yaml.v3"
)

//go:embed default_profile.yaml
var defaultProfile []byte

// DefaultProfileYAML returns the embedded profile document.
func DefaultProfileYAML() []byte {
	return append([]byte(nil), defaultProfile...)
}

// DefaultProfile parses the embedded profile. It panics if the embedded
// document is invalid, which only a broken build can cause.
func DefaultProfile() *profile.Profile {
	p, err := ParseProfile(defaultProfile)
	if err != nil {
		panic(fmt.Sprintf("embedded profile: %v", err))
	}
	return p
}

// LoadProfile reads a profile from path, or returns the embedded default
// when path is empty.
func LoadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return ParseProfile(defaultProfile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read profile %s: %w", ErrLoadConfig, path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes a YAML profile, checks it against the embedded CUE
// schema and then runs the semantic checks the schema cannot express.
func ParseProfile(data []byte) (*profile.Profile, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidProfile)
	}

	v, err := profileValidator()
	if err != nil {
		return nil, err
	}
	if err := v.validate(doc); err != nil {
		return nil, err
	}

	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
