package history

import (
	"time"

	"git.home.luguber.info/inful/sitepub/internal/build"
	"git.home.luguber.info/inful/sitepub/internal/publish"
)

// Run is one recorded invocation.
type Run struct {
	ID             int64
	BuildID        string
	StartedAt      time.Time
	Duration       time.Duration
	BuildStatus    string
	FailedStage    string
	SourceRevision string
	Files          []string
	// Published is set when a publish was attempted.
	Published    bool
	PublishState string
	Commit       string
	Unchanged    bool
	Error        string
}

// Succeeded reports whether the build and, if attempted, the publish succeeded.
func (r Run) Succeeded() bool {
	if r.Error != "" || r.BuildStatus != string(build.StatusSuccess) {
		return false
	}
	return !r.Published || r.PublishState == publish.StateRestored.String()
}

// NewRun summarizes a build and an optional publish. err is the error that
// ended the invocation, if any.
func NewRun(b *build.Result, p *publish.Result, err error) Run {
	var r Run
	if b != nil {
		r.BuildID = b.BuildID
		r.StartedAt = b.StartTime
		r.Duration = b.Duration
		r.BuildStatus = string(b.Status)
		r.FailedStage = string(b.FailedStage)
		r.Files = b.Files()
	}
	if p != nil {
		r.Published = true
		r.PublishState = p.State.String()
		r.Commit = p.Commit
		r.Unchanged = p.Unchanged
		r.SourceRevision = p.SourceRevision
		r.Duration += p.Duration
	}
	if err != nil {
		r.Error = err.Error()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return r
}
