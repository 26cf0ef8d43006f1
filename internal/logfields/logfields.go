package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPipeline   = "pipeline"
	KeyStage      = "stage"
	KeyTask       = "task"
	KeyGroup      = "group"
	KeyVersion    = "docs_version"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Pipeline(name string) slog.Attr  { return slog.String(KeyPipeline, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Group(name string) slog.Attr     { return slog.String(KeyGroup, name) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
// Elapsed renders d under the duration_ms key.
func Elapsed(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }

func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
