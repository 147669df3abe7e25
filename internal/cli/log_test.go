package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level     log.Level
		wantDebug bool
	}{
		{LogInfo, false},
		{LogDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			l.Debug("reading setup.cfg")
			l.Info("project root", "path", "/src/demo")

			out := buf.String()
			if !strings.Contains(out, "path=/src/demo") {
				t.Errorf("info line missing from %q", out)
			}
			if got := strings.Contains(out, "reading setup.cfg"); got != tt.wantDebug {
				t.Errorf("debug line logged = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogDebug))
	time.Sleep(10 * time.Millisecond)
	prog.done("indexed installed packages", "projects", 42)

	for _, want := range []string{"indexed installed packages", "projects=42", "elapsed="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %q should contain %q", buf.String(), want)
		}
	}
}

func TestProgressQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, LogInfo)).done("indexed")
	if buf.Len() != 0 {
		t.Errorf("progress.done() logged at info level: %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("a bare context should yield log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, LogInfo)
	got := loggerFromContext(withLogger(context.Background(), l))
	if got != l {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	got.Warn("requirements file missing")
	if !strings.Contains(buf.String(), "requirements file missing") {
		t.Error("attached logger should write to its buffer")
	}
}
