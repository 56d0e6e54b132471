package main

import (
	"testing"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("defaults when env is unset", func(t *testing.T) {
		t.Setenv("LUXGRID_CONFIG", "")
		if got := getConfigPath(); got != defaultConfigPath {
			t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
		}
	})

	t.Run("environment variable wins", func(t *testing.T) {
		t.Setenv("LUXGRID_CONFIG", "/etc/luxgrid/config.yaml")
		if got := getConfigPath(); got != "/etc/luxgrid/config.yaml" {
			t.Errorf("getConfigPath() = %q", got)
		}
	})
}
