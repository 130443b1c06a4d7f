package gridengine

import (
	"bufio"
	"context"
	"io"
	"unicode"

	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/subprocess"
)

// A Format identifies the shape of qstat output.
type Format int

const (
	FormatAuto Format = iota
	FormatText
	FormatXML
)

// DefaultCommand is the qstat executable used when none is configured.
const DefaultCommand = "qstat"

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatXML:
		return "xml"
	}
	return "auto"
}

// ParseFormat parses the name of a format as returned by Format.String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "xml":
		return FormatXML, nil
	}
	return FormatAuto, errors.Errorf("unrecognized format %q", s)
}

// Detect peeks at the first non-blank byte of r without consuming it: a
// document starting with "<" is XML, anything else is text.
func Detect(r *bufio.Reader) (Format, error) {
	for n := 1; ; n++ {
		buf, err := r.Peek(n)
		if len(buf) == n && !unicode.IsSpace(rune(buf[n-1])) {
			if buf[n-1] == '<' {
				return FormatXML, nil
			}
			return FormatText, nil
		}
		if err == io.EOF {
			return FormatText, nil
		}
		if err != nil {
			return FormatAuto, errors.Wrap(err, "reading qstat output")
		}
	}
}

// NewParser returns the parser for a concrete format.
func NewParser(f Format, memoryResource string) (Parser, error) {
	switch f {
	case FormatText:
		return NewTextParser(memoryResource), nil
	case FormatXML:
		return NewXMLParser(memoryResource), nil
	}
	return nil, errors.Errorf("no parser for format %s", f)
}

// Args returns the qstat arguments listing all users' jobs with their
// resource requests in the given format. Auto means text.
func Args(f Format) []string {
	if f == FormatXML {
		return []string{"-xml", "-r", "-u", "*"}
	}
	return []string{"-r", "-u", "*"}
}

// QueryJobs runs qstat and returns its raw output.
func QueryJobs(ctx context.Context, runner subprocess.Runner, command string, f Format) ([]byte, error) {
	if command == "" {
		command = DefaultCommand
	}
	return runner.Run(ctx, command, Args(f)...)
}
