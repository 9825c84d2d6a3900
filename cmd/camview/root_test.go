package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/e7canasta/camview/internal/config"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camview.yaml")
	body := "device_path: /dev/video2\nwindow: {width: 1280, height: 720}\nsource: synthetic\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--width", "800", "--debug"}); err != nil {
		t.Fatalf("ParseFlags() failed: %v", err)
	}

	var f flags
	f.configFile, _ = cmd.Flags().GetString("config")
	f.width, _ = cmd.Flags().GetInt("width")
	f.debug, _ = cmd.Flags().GetBool("debug")

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}

	if cfg.DevicePath != "/dev/video2" {
		t.Errorf("DevicePath = %q, want file value", cfg.DevicePath)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 720 {
		t.Errorf("Window = %dx%d, want 800x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Source != "synthetic" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--source", "rtsp"}); err != nil {
		t.Fatalf("ParseFlags() failed: %v", err)
	}

	_, err := loadConfig(cmd, flags{source: "rtsp"})
	if err == nil {
		t.Fatal("loadConfig() accepted an unknown source")
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--headless", "--source", "synthetic"}); err != nil {
		t.Fatalf("ParseFlags() failed: %v", err)
	}

	cfg, err := loadConfig(cmd, flags{headless: true, source: "synthetic"})
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}

	if !cfg.Window.Headless {
		t.Error("Window.Headless = false, want true")
	}
	if cfg.Source != "synthetic" {
		t.Errorf("Source = %q, want synthetic", cfg.Source)
	}
	if cfg.DevicePath != config.DefaultDevicePath || cfg.Window.Width != config.DefaultWidth {
		t.Errorf("defaults not applied: device %q, width %d", cfg.DevicePath, cfg.Window.Width)
	}
	if cfg.Telemetry.Topic != "camview/health/camview" {
		t.Errorf("Telemetry.Topic = %q", cfg.Telemetry.Topic)
	}
}
