package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// RotatingWriter is an io.Writer that appends to one log file per ISO week
// and removes files older than the retention period.
type RotatingWriter struct {
	logDir      string
	retention   time.Duration
	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

var logFilePattern = regexp.MustCompile(`^app-(\d{4})-W(\d{2})\.log$`)

// NewRotatingWriter creates a rotating writer storing files under logDir.
func NewRotatingWriter(logDir string, retentionWeeks int) *RotatingWriter {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingWriter{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// weekKey returns the ISO week key in YYYY-Www format
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends to the current week's log file, rotating first if the week
// has changed since the last write.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(time.Now())
	if rw.currentFile == nil || week != rw.currentWeek {
		if err := rw.rotate(week); err != nil {
			return 0, err
		}
	}

	return rw.currentFile.Write(p)
}

// rotate opens the log file for targetWeek (caller must hold the lock)
func (rw *RotatingWriter) rotate(targetWeek string) error {
	if rw.currentFile != nil {
		if err := rw.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	logPath := filepath.Join(rw.logDir, fmt.Sprintf("app-%s.log", targetWeek))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rw.currentFile = file
	rw.currentWeek = targetWeek
	return nil
}

// CleanupOldLogs removes log files older than the retention period.
func (rw *RotatingWriter) CleanupOldLogs() error {
	entries, err := os.ReadDir(rw.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rw.retention)
	for _, entry := range entries {
		if entry.IsDir() || !logFilePattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(rw.logDir, entry.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("Failed to remove old log file", "path", path, "error", err)
				continue
			}
			slog.Info("Removed old log file", "path", path)
		}
	}

	return nil
}

// Close stops the cleanup goroutine and closes the current file.
func (rw *RotatingWriter) Close() error {
	rw.cancel()
	<-rw.cleanupDone

	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.currentFile == nil {
		return nil
	}
	err := rw.currentFile.Close()
	rw.currentFile = nil
	return err
}

// startCleanup runs daily retention sweeps until Close is called.
func (rw *RotatingWriter) startCleanup() {
	go func() {
		defer close(rw.cleanupDone)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-rw.ctx.Done():
				return
			case <-ticker.C:
				if err := rw.CleanupOldLogs(); err != nil {
					slog.Warn("Failed to cleanup old logs", "error", err)
				}
			}
		}
	}()
}

// SetupLogger configures slog to write text to the console and JSON to
// weekly rotating files under logDir. If the directory cannot be created it
// falls back to console-only logging.
func SetupLogger(logDir string, retentionWeeks int) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		consoleLogger := slog.New(consoleHandler)
		consoleLogger.Error("Failed to create logs directory", "error", err)
		return consoleLogger
	}

	rotating := NewRotatingWriter(logDir, retentionWeeks)
	rotating.startCleanup()

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
