package gridengine

import "fmt"

// A MalformedStreamError is returned when qstat text output does not have the
// expected item structure.
type MalformedStreamError struct {
	Line int
	Text string
	Msg  string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// A SchemaViolationError is returned when a job element of qstat XML output
// does not have exactly one child element for a field.
type SchemaViolationError struct {
	Job   string
	Field string
	Count int
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("job %s: expected one %s element, found %d", e.Job, e.Field, e.Count)
}
