package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/catalog"
)

// BuildService executes one complete build.
type BuildService interface {
	Run(ctx context.Context) (*Result, error)
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsSuccess reports whether the build output may be published.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// ArtifactOutput describes where an artifact ended up.
type ArtifactOutput struct {
	Name string
	Kind catalog.Kind
	// Path is the file in the build directory; empty when the artifact was
	// inlined into the primary markup.
	Path string
	// Compressed is the gzip sibling of Path.
	Compressed string
	Inlined    bool
}

// Result contains the outcome of a build execution. Run always returns a
// non-nil Result, also on failure.
type Result struct {
	BuildID   string
	Status    Status
	OutputDir string
	Artifacts []ArtifactOutput
	// Inlined lists the asset file names folded into the primary markup.
	Inlined        []string
	FailedStage    StageName
	StageDurations map[StageName]time.Duration
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// Files returns every file the build produced, in catalog order.
func (r *Result) Files() []string {
	var files []string
	for _, a := range r.Artifacts {
		if a.Path != "" {
			files = append(files, a.Path)
		}
		if a.Compressed != "" {
			files = append(files, a.Compressed)
		}
	}
	return files
}
