package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestLoadConfig_FlagPrecedence verifies flags win over defaults.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	cfgDBPath = "/tmp/flag.db"
	cfgAPIAddr = ":9999"
	defer func() { cfgDBPath, cfgAPIAddr = "", "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.APIAddr != ":9999" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
}

// TestVersionCommand verifies version output carries the build values.
func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)

	if err := runVersion(versionCmd, nil); err != nil {
		t.Fatalf("runVersion failed: %v", err)
	}
	if !strings.Contains(out.String(), "skysync dev") {
		t.Errorf("output = %q", out.String())
	}
}
