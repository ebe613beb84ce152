package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validated struct {
	Name string `yaml:"name"`
}

func (v *validated) Validate() error {
	if v.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "inkpad")
	path := writeFile(t, "name: ${CONFIG_TEST_NAME}\nport: 8080\n")

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "inkpad" || got.Port != 8080 {
		t.Errorf("got = %+v", got)
	}
}

func TestLoad_KeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, "name: x\n")
	got := sample{Port: 9000}
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Port != 9000 {
		t.Errorf("port = %d, want default 9000", got.Port)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	path := writeFile(t, "name: \"\"\n")
	var got validated
	err := Load(path, &got)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &got); err == nil {
		t.Fatal("expected error for missing file")
	}
}
