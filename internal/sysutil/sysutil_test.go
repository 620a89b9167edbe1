package sysutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := map[string]zerolog.Level{
		"  DeBuG  ": zerolog.DebugLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"loud":      zerolog.InfoLevel,
	}
	for in, want := range cases {
		SetLogLevel(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", in, got, want)
		}
	}
}

func restoreLogger(t *testing.T) {
	t.Helper()
	prev, lvl := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(lvl)
	})
}

func TestSetupLogger_JSONToConsole(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer

	closer := SetupLogger(LogOptions{Level: "warn", Stdout: &buf})
	defer closer.Close()

	log.Info().Msg("dropped")
	log.Warn().Str("job_id", "j1").Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn: %s", out)
	}
	if !strings.Contains(out, `"job_id":"j1"`) || !strings.Contains(out, `"time"`) {
		t.Fatalf("expected JSON line with timestamp, got %s", out)
	}
}

func TestSetupLogger_PrettyAndFile(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "store.log")

	closer := SetupLogger(LogOptions{Level: "info", Pretty: true, File: path, Stdout: &buf})
	log.Info().Msg("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if strings.Contains(buf.String(), `"message"`) || !strings.Contains(buf.String(), "to both") {
		t.Fatalf("console output should be pretty: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"to both"`) {
		t.Fatalf("file should hold JSON lines, got %q", data)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", "v1", "v2"); got != "v1" {
		t.Fatalf("FirstNonEmpty = %q", got)
	}
	if got := FirstNonEmpty(" ", ""); got != "" {
		t.Fatalf("FirstNonEmpty(all blank) = %q", got)
	}
}
