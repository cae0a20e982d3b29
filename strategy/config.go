package strategy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConfigPath is the location of the variant list inside the asset filesystem.
const ConfigPath = "assets/variants_config.json"

// Environment overrides.
const (
	EnvWork  = "EVENTLOOP_WORK"  // Go duration applied to every variant
	EnvChime = "EVENTLOOP_CHIME" // boolean; false disables every chime
)

// AppContentReader defines the interface for reading content from the embedded file system.
type AppContentReader interface {
	ReadFile(name string) ([]byte, error)
}

// Kind names a click strategy.
type Kind string

const (
	KindBlocking    Kind = "blocking"
	KindOffload     Kind = "offload"
	KindGated       Kind = "gated"
	KindCooperative Kind = "cooperative"
)

// Variant holds the static configuration of one demo window.
type Variant struct {
	Name        string  `json:"name"`
	Strategy    Kind    `json:"strategy"`
	Title       string  `json:"title"`
	Label       string  `json:"label"`
	WorkSeconds float64 `json:"work_seconds"`
	Chime       bool    `json:"chime"`
}

// Work returns the simulated work duration.
func (v *Variant) Work() time.Duration {
	return time.Duration(v.WorkSeconds * float64(time.Second))
}

// Validate checks that the variant can be bound.
func (v *Variant) Validate() error {
	switch v.Strategy {
	case KindBlocking, KindOffload, KindGated, KindCooperative:
	default:
		return fmt.Errorf("variant %q: unknown strategy %q", v.Name, v.Strategy)
	}
	if v.WorkSeconds < 0 {
		return fmt.Errorf("variant %q: negative work_seconds", v.Name)
	}
	return nil
}

// LoadVariants loads the variant list from the asset filesystem.
func LoadVariants(reader AppContentReader) ([]*Variant, error) {
	data, err := reader.ReadFile(ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read variant configs: %w", err)
	}

	var variants []*Variant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("unmarshal variant configs: %w", err)
	}
	for _, v := range variants {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return variants, nil
}

// ApplyEnv applies the environment overrides read through getenv.
func ApplyEnv(variants []*Variant, getenv func(string) string) error {
	if raw := strings.TrimSpace(getenv(EnvWork)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("%s=%q: want a non-negative duration", EnvWork, raw)
		}
		for _, v := range variants {
			v.WorkSeconds = d.Seconds()
		}
	}
	if raw := strings.TrimSpace(getenv(EnvChime)); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvChime, raw, err)
		}
		if !on {
			for _, v := range variants {
				v.Chime = false
			}
		}
	}
	return nil
}
