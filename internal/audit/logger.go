package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// FileName is the audit trail inside the log directory.
const FileName = "audit.jsonl"

// CodeSuccess marks an action that completed.
const CodeSuccess = "SUCCESS"

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	Actor     string                 `json:"actor"`
	Target    string                 `json:"target"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Code      string                 `json:"code"`
	Error     string                 `json:"error,omitempty"`
	LatencyMs float64                `json:"latencyMs"`
}

// Rotation limits the size and number of audit files kept.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger appends entries to the audit trail.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      *lumberjack.Logger
}

// NewLogger creates logDir if needed and opens the audit trail within it.
func NewLogger(logDir string, rot Rotation) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(logDir, FileName)

	// Fail early on permissions; lumberjack opens lazily.
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	_ = f.Close()

	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
			LocalTime:  false,
		},
	}, nil
}

type actorKey struct{}

// WithActor returns a context carrying the authenticated subject.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the subject stored by WithActor, or "local".
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "local"
}

// LogAction records action on target. err decides the code.
func (l *Logger) LogAction(ctx context.Context, target, action string, params map[string]interface{}, err error, latency time.Duration) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Actor:     ActorFrom(ctx),
		Target:    target,
		Action:    action,
		Params:    params,
		Code:      CodeFor(err),
		LatencyMs: float64(latency) / float64(time.Millisecond),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.writeEntry(entry)
}

// CodeFor maps err to its normalized code name.
func CodeFor(err error) string {
	if err == nil {
		return CodeSuccess
	}
	return adapter.Code(err).Error()
}

func (l *Logger) writeEntry(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
	}
}

// Close closes the audit trail. Later entries are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// GetFilePath returns the path of the active audit file.
func (l *Logger) GetFilePath() string {
	return l.filePath
}

// Rotate starts a new audit file, keeping the old one as a timestamped
// backup.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return fmt.Errorf("audit log closed")
	}
	return l.out.Rotate()
}
