// Package qtop summarizes the resources requested by running Grid Engine jobs
// per user and ranks users by overall load.
package qtop

import (
	"bufio"
	"io"

	"github.com/snsinfu/sge-qtop/gridengine"
)

// Options control how qstat output is interpreted.
type Options struct {
	Format         gridengine.Format
	MemoryResource string

	// Strict applies the strict policy to text output as well. XML output
	// is always validated strictly.
	Strict       bool
	RunningState string
	LoginName    string
}

// Policy returns the validation policy for output in format f.
func (opts Options) Policy(f gridengine.Format) Policy {
	if f == gridengine.FormatXML || opts.Strict {
		return StrictPolicy(opts.RunningState, opts.LoginName)
	}
	return LenientPolicy()
}

// Summarize reads one qstat snapshot from r and returns the ranked report with
// diagnostics for the jobs left out. Any parse error aborts the summary.
func Summarize(r io.Reader, opts Options) (Report, []Diagnostic, error) {
	format := opts.Format

	if format == gridengine.FormatAuto {
		br := bufio.NewReader(r)

		detected, err := gridengine.Detect(br)
		if err != nil {
			return Report{}, nil, err
		}
		format = detected
		r = br
	}

	parser, err := gridengine.NewParser(format, opts.MemoryResource)
	if err != nil {
		return Report{}, nil, err
	}

	jobs, err := parser.Parse(r)
	if err != nil {
		return Report{}, nil, err
	}

	accepted, diags, err := Validate(jobs, opts.Policy(format))
	if err != nil {
		return Report{}, nil, err
	}

	usages, err := Aggregate(accepted)
	if err != nil {
		return Report{}, nil, err
	}

	rep := Report{
		Format:   format,
		Owners:   Rank(usages),
		Accepted: len(accepted),
		Rejected: len(diags),
	}

	return rep, diags, nil
}
