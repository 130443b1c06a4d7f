// Package gridengine reads job listings produced by the Grid Engine qstat
// command, either as the human-readable "qstat -r" text or as "qstat -xml".
package gridengine

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/units"
)

// A Quantity is an integer resource request that may be absent. An absent
// quantity is distinct from a zero one.
type Quantity struct {
	Value int64
	Valid bool
}

// Some returns a present quantity.
func Some(n int64) Quantity {
	return Quantity{Value: n, Valid: true}
}

func (q Quantity) String() string {
	if !q.Valid {
		return "-"
	}
	return fmt.Sprint(q.Value)
}

// A Request holds every value qstat printed for one resource of a job, so
// that a repeated request can be told apart from a single one.
type Request struct {
	Field  string
	Values []string
}

// A Job contains the fields of one qstat record relevant to resource usage.
// Parsers fill the raw CPURequest and MemRequest; CPU and Mem are set by
// Resolve. Mem is in bytes.
type Job struct {
	ID    string
	Name  string
	Owner string
	State string

	CPURequest Request
	MemRequest Request

	CPU Quantity
	Mem Quantity
}

// Resolve returns job with CPU and Mem converted from the raw requests. An
// absent request leaves the quantity absent. A repeated request is a
// SchemaViolationError and an unparseable one is an error as well.
func (job Job) Resolve() (Job, error) {
	cpu, err := job.CPURequest.resolve(job.ID, parseCount)
	if err != nil {
		return Job{}, err
	}

	mem, err := job.MemRequest.resolve(job.ID, units.ParseMemory)
	if err != nil {
		return Job{}, err
	}

	job.CPU = cpu
	job.Mem = mem
	return job, nil
}

func (r Request) resolve(id string, conv func(string) (int64, error)) (Quantity, error) {
	switch len(r.Values) {
	case 0:
		return Quantity{}, nil

	case 1:
		n, err := conv(r.Values[0])
		if err != nil {
			return Quantity{}, errors.Wrapf(err, "job %s: bad %s", id, r.Field)
		}
		return Some(n), nil
	}

	return Quantity{}, &SchemaViolationError{Job: id, Field: r.Field, Count: len(r.Values)}
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Errorf("negative count %q", s)
	}
	return n, nil
}

// A Parser converts raw qstat output into jobs, in input order. Parsers do
// not resolve resource requests, so a job that is later excluded cannot fail
// the parse with a bad request.
type Parser interface {
	Parse(r io.Reader) ([]Job, error)
}

// DefaultMemoryResource is the resource whose hard request is taken as the
// memory requested by a job.
const DefaultMemoryResource = "mem_free"
