package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyArtifact   = "artifact"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyTransition = "transition"
	KeyBranch     = "branch"
	KeyRevision   = "revision"
	KeyBackend    = "backend"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyBytes      = "bytes"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Artifact(name string) slog.Attr    { return slog.String(KeyArtifact, name) }
func Kind(k string) slog.Attr           { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Transition(name string) slog.Attr  { return slog.String(KeyTransition, name) }
func Branch(b string) slog.Attr         { return slog.String(KeyBranch, b) }
func Revision(rev string) slog.Attr     { return slog.String(KeyRevision, rev) }
func Backend(b string) slog.Attr        { return slog.String(KeyBackend, b) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Bytes(n int) slog.Attr             { return slog.Int(KeyBytes, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
