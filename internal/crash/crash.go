// Package crash turns a panic into a log entry, a report file and a last
// save of the open document.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "cli-page/internal/log"
	"cli-page/internal/version"
)

// flushTimeout bounds the final save after a crash.
const flushTimeout = 10 * time.Second

// exitFn is swapped in tests so Recover does not end the process.
var exitFn = os.Exit

// Recover captures a panic, reports it and exits with status 2. flush may be
// nil.
//
// Usage: defer crash.Recover(flush)
func Recover(flush func(context.Context) error) {
	if r := recover(); r != nil {
		path := Report(r, debug.Stack(), flush)
		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", path); err != nil {
			applog.WithComponent("crash").Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// Report logs the failure, writes a report file and runs flush. It returns
// the report path.
func Report(cause any, stack []byte, flush func(context.Context) error) string {
	l := applog.WithComponent("crash")
	l.Error("fatal error", slog.Any("cause", cause), slog.String("stack", string(stack)))

	path, err := writeReport(cause, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err), slog.String("path", path))
	}

	if flush != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := flush(ctx); err != nil {
			l.Error("final save failed", slog.Any("err", err))
		} else {
			l.Info("final save written")
		}
	}
	return path
}

// Dir is where crash reports go: next to the default log file.
func Dir() string {
	f := applog.DefaultFile()
	if f == "" {
		return os.TempDir()
	}
	return filepath.Dir(f)
}

func writeReport(cause any, stack []byte) (string, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "cli-page crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", cause)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
