package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"trace":     zerolog.TraceLevel,
		"info":      zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"WARNING":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"disabled":  zerolog.Disabled,
		"verbose":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func restoreLogging(t *testing.T) {
	t.Helper()
	lvl, lg, tf := zerolog.GlobalLevel(), log.Logger, zerolog.TimeFieldFormat
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = lg
		zerolog.TimeFieldFormat = tf
	})
}

func TestSetupLogger_JSON(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogger(&buf, "warn", false)

	log.Info().Msg("dropped")
	log.Warn().Str("item", "Pandecoco").Msg("low stock")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["level"] != "warn" || rec["item"] != "Pandecoco" || rec["time"] == nil {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestSetupLogger_Pretty(t *testing.T) {
	restoreLogging(t)
	var buf bytes.Buffer
	SetupLogger(&buf, "debug", true)
	log.Debug().Msg("seeded 2 item(s)")

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "DBG") || !strings.Contains(out, "seeded 2 item(s)") {
		t.Fatalf("expected console output, got %q", out)
	}
}
