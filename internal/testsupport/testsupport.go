// Package testsupport provides temp-directory configuration and soundlist
// fixtures shared by integration-style tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"soundbridge/internal/config"
)

// SampleSoundlist is a small but structurally complete document: three
// definitions, a nested category tree, and a foreign section that mutations
// must preserve byte for byte.
const SampleSoundlist = `<Soundlist version="2">
  <Sound url="C:\sounds\airhorn.mp3" tag="airhorn" artist="" title="Airhorn" duration="3"/>
  <Sound url="C:\sounds\drum.mp3" tag="drum" artist="" title="Drumroll" duration="7"/>
  <Sound url="C:\sounds\rain.mp3" tag="rain" artist="Nature" title="Rain" duration="120"/>
  <Categories>
    <Category name="Effects" icon="star">
      <Sound id="0"/>
      <Sound id="1"/>
    </Category>
    <Category name="Ambience">
      <Sound id="2"/>
    </Category>
  </Categories>
  <Hotkeys>
    <Hotkey keys="Ctrl+F1" sound="0"/>
  </Hotkeys>
</Soundlist>
`

// NewConfig builds a validated configuration rooted in a fresh temp
// directory, with a fake soundboard executable and the sample document in
// place.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Board.Executable = filepath.Join(dir, "soundboard")
	cfg.Board.Document = filepath.Join(dir, "soundlist.spl")
	cfg.Board.ControlAddress = "127.0.0.1:0"

	if err := os.WriteFile(cfg.Board.Executable, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake executable: %v", err)
	}
	WriteDocument(t, cfg.Board.Document, SampleSoundlist)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WriteDocument writes a soundlist document fixture to the given path.
func WriteDocument(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
}

// ReadDocument reads the document back for assertions.
func ReadDocument(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	return string(data)
}
