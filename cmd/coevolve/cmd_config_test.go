package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/coevolve/internal/config"
)

func TestConfigCmd_SetGet(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newConfigCmd(), "config", "set", "disease.gamma", "0.25")
	if err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if !strings.Contains(out, "Set disease.gamma = 0.25") {
		t.Errorf("set output = %q", out)
	}

	out, err = execute(t, newConfigCmd(), "config", "get", "disease.gamma")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "disease.gamma = 0.25" {
		t.Errorf("get output = %q, want %q", out, "disease.gamma = 0.25")
	}

	out, err = execute(t, newConfigCmd(), "config", "get", "disease.gamma", "--json")
	if err != nil {
		t.Fatalf("config get --json failed: %v", err)
	}
	var result struct {
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if result.Key != "disease.gamma" || result.Value != 0.25 {
		t.Errorf("get --json = %+v", result)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Disease.Gamma != 0.25 {
		t.Errorf("saved gamma = %v, want 0.25", cfg.Disease.Gamma)
	}
}

func TestConfigCmd_SetErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "disease.virulence", "3"},
		{"not a number", "disease.tau", "ten"},
		{"out of range", "disease.gamma", "2"},
		{"unknown utility", "utility.kind", "linear"},
		{"unknown backend", "store.backend", "postgres"},
		{"bad duration", "simulation.agent_delay", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			isolateHome(t, tmpDir)

			if _, err := execute(t, newConfigCmd(), "config", "set", tt.key, tt.value); err == nil {
				t.Errorf("config set %s %s succeeded, want error", tt.key, tt.value)
			}

			path, err := config.DefaultPath()
			if err != nil {
				t.Fatalf("DefaultPath: %v", err)
			}
			if _, err := config.LoadFromFile(path); err == nil {
				t.Error("rejected value was saved")
			}
		})
	}
}

func TestConfigCmd_List(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, newConfigCmd(), "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, key := range configKeys {
		if !strings.Contains(out, key+":") {
			t.Errorf("list output missing %s", key)
		}
	}

	out, err = execute(t, newConfigCmd(), "config", "list", "--json")
	if err != nil {
		t.Fatalf("config list --json failed: %v", err)
	}
	var cfg config.CoevolveConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if cfg.Utility.Kind != config.Default().Utility.Kind {
		t.Errorf("utility.kind = %q, want default", cfg.Utility.Kind)
	}
}

func TestConfigCmd_GetUnknown(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	if _, err := execute(t, newConfigCmd(), "config", "get", "llm.provider"); err == nil {
		t.Error("get of unknown key succeeded, want error")
	}
}

func TestGetSetConfigValue(t *testing.T) {
	cfg := config.Default()
	for _, key := range configKeys {
		if _, ok := getConfigValue(cfg, key); !ok {
			t.Errorf("getConfigValue(%q) not found", key)
		}
	}

	tests := []struct {
		key   string
		value string
		check func(*config.CoevolveConfig) bool
	}{
		{"utility.kind", "irtc", func(c *config.CoevolveConfig) bool { return c.Utility.Kind == "irtc" }},
		{"population.size", "30", func(c *config.CoevolveConfig) bool { return c.Population.Size == 30 }},
		{"simulation.seed", "123", func(c *config.CoevolveConfig) bool { return c.Simulation.Seed == 123 }},
		{"simulation.agent_delay", "50ms", func(c *config.CoevolveConfig) bool { return c.Simulation.AgentDelay == 50*time.Millisecond }},
		{"risk.r_pi", "0.5", func(c *config.CoevolveConfig) bool { return c.Risk.RPi == 0.5 }},
		{"store.path", "/tmp/runs.db", func(c *config.CoevolveConfig) bool { return c.Store.Path == "/tmp/runs.db" }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c := config.Default()
			if err := setConfigValue(c, tt.key, tt.value); err != nil {
				t.Fatalf("setConfigValue: %v", err)
			}
			if !tt.check(c) {
				t.Errorf("%s = %s not applied", tt.key, tt.value)
			}
		})
	}
}
