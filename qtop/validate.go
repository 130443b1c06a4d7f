package qtop

import (
	"fmt"

	"github.com/snsinfu/sge-qtop/gridengine"
)

// Defaults for the Grid Engine job state and login job name.
const (
	DefaultRunningState = "r"
	DefaultLoginName    = "QLOGIN"
)

// A Reason tells why a job was left out of the summary.
type Reason string

const (
	ReasonNotRunning    Reason = "not-running"
	ReasonLogin         Reason = "login-session"
	ReasonMissingCPU    Reason = "missing-cpu"
	ReasonMissingMemory Reason = "missing-memory"
)

// Reasons lists every Reason.
var Reasons = []Reason{
	ReasonNotRunning,
	ReasonLogin,
	ReasonMissingCPU,
	ReasonMissingMemory,
}

// A Diagnostic records a rejected job. Diagnostics are advisory.
type Diagnostic struct {
	Job    gridengine.Job
	Reason Reason
}

func (d Diagnostic) String() string {
	switch d.Reason {
	case ReasonNotRunning:
		return fmt.Sprintf("Job not running (%s): %s", d.Job.State, d.Job.Name)
	case ReasonLogin:
		return fmt.Sprintf("Job is a login session: %s", d.Job.Name)
	case ReasonMissingCPU:
		return fmt.Sprintf("Job with no CPU: %s", d.Job.Name)
	case ReasonMissingMemory:
		return fmt.Sprintf("Job with no memory: %s", d.Job.Name)
	}
	return fmt.Sprintf("Job rejected (%s): %s", d.Reason, d.Job.Name)
}

// A Policy decides which jobs count toward the summary.
type Policy struct {
	// RequireRunning rejects jobs whose state is not RunningState.
	RequireRunning bool
	RunningState   string

	// ExcludeLogin rejects jobs named LoginName.
	ExcludeLogin bool
	LoginName    string

	// RejectMissing rejects jobs lacking a CPU or memory request. Otherwise
	// a missing request counts as zero.
	RejectMissing bool
}

// StrictPolicy returns a policy applying all checks.
func StrictPolicy(runningState, loginName string) Policy {
	if runningState == "" {
		runningState = DefaultRunningState
	}
	if loginName == "" {
		loginName = DefaultLoginName
	}
	return Policy{
		RequireRunning: true,
		RunningState:   runningState,
		ExcludeLogin:   true,
		LoginName:      loginName,
		RejectMissing:  true,
	}
}

// LenientPolicy returns a policy accepting every job, counting missing
// requests as zero.
func LenientPolicy() Policy {
	return Policy{}
}

// Screen returns the reason job is rejected by its state or name alone, or ""
// if it passes. Screening does not look at resource requests.
func (p Policy) Screen(job gridengine.Job) Reason {
	if p.RequireRunning && job.State != p.RunningState {
		return ReasonNotRunning
	}

	if p.ExcludeLogin && job.Name == p.LoginName {
		return ReasonLogin
	}

	return ""
}

// Check returns the reason a resolved job is rejected, or "" if it is
// accepted.
func (p Policy) Check(job gridengine.Job) Reason {
	if reason := p.Screen(job); reason != "" {
		return reason
	}

	if p.RejectMissing {
		if !job.CPU.Valid {
			return ReasonMissingCPU
		}
		if !job.Mem.Valid {
			return ReasonMissingMemory
		}
	}

	return ""
}

// Validate splits jobs into accepted ones and diagnostics for the rest.
// Resource requests are resolved only for jobs passing Screen, and a request
// that fails to resolve aborts validation. Accepted jobs always have both CPU
// and memory present.
func Validate(jobs []gridengine.Job, policy Policy) ([]gridengine.Job, []Diagnostic, error) {
	accepted := []gridengine.Job{}
	var diags []Diagnostic

	for _, job := range jobs {
		if reason := policy.Screen(job); reason != "" {
			diags = append(diags, Diagnostic{Job: job, Reason: reason})
			continue
		}

		resolved, err := job.Resolve()
		if err != nil {
			return nil, nil, err
		}
		job = resolved

		if reason := policy.Check(job); reason != "" {
			diags = append(diags, Diagnostic{Job: job, Reason: reason})
			continue
		}

		if !job.CPU.Valid {
			job.CPU = gridengine.Some(0)
		}
		if !job.Mem.Valid {
			job.Mem = gridengine.Some(0)
		}

		accepted = append(accepted, job)
	}

	return accepted, diags, nil
}
