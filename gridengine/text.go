package gridengine

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	headerLines  = 2
	maxLineBytes = 1024 * 1024
)

var (
	itemPattern    = regexp.MustCompile(`^\s*\d`)
	threadsPattern = regexp.MustCompile(`(?:^|\s)threads\s+(\d+)`)
)

// TextParser parses "qstat -r" output. Each job is an item line starting with
// the job number followed by indented detail lines.
type TextParser struct {
	MemoryResource string
}

// NewTextParser returns a TextParser reading memory from the given resource.
func NewTextParser(memoryResource string) *TextParser {
	return &TextParser{MemoryResource: memoryResource}
}

// Parse reads all jobs from r. Only the first threads and memory request of
// each job is kept.
func (p *TextParser) Parse(r io.Reader) ([]Job, error) {
	memField := p.MemoryResource
	if memField == "" {
		memField = DefaultMemoryResource
	}
	memPattern := memoryPattern(memField)
	sc := newBlockScanner(r)

	jobs := []Job{}

	for sc.Next() {
		job, err := parseBlock(sc.Block(), sc.BlockLine(), memField, memPattern)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func memoryPattern(resource string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[\s,])` + regexp.QuoteMeta(resource) + `=([0-9.]+)([^\s,]?)`)
}

// parseBlock extracts a job from the lines of one item. The item line is
//
//   job-ID prior name user state submit/start-at queue slots ...
func parseBlock(lines []string, line int, memField string, memPattern *regexp.Regexp) (Job, error) {
	fields := strings.Fields(lines[0])
	if len(fields) < 4 {
		return Job{}, &MalformedStreamError{
			Line: line,
			Text: lines[0],
			Msg:  "cannot find owner",
		}
	}

	job := Job{
		ID:    fields[0],
		Name:  fields[2],
		Owner: fields[3],
	}
	if len(fields) > 4 {
		job.State = fields[4]
	}

	text := strings.Join(lines, " ")

	job.CPURequest = Request{Field: "threads"}
	if m := threadsPattern.FindStringSubmatch(text); m != nil {
		job.CPURequest.Values = []string{m[1]}
	}

	job.MemRequest = Request{Field: memField}
	if m := memPattern.FindStringSubmatch(text); m != nil {
		job.MemRequest.Values = []string{m[1] + m[2]}
	}

	return job, nil
}

// blockScanner groups the lines of qstat text output into items. The first
// two lines are a header and are skipped without inspection.
type blockScanner struct {
	sc        *bufio.Scanner
	line      int
	open      []string
	openLine  int
	block     []string
	blockLine int
	err       error
	done      bool
}

func newBlockScanner(r io.Reader) *blockScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &blockScanner{sc: sc}
}

// Next advances to the next complete item and reports whether there is one.
func (s *blockScanner) Next() bool {
	if s.done {
		return false
	}

	for s.sc.Scan() {
		s.line++
		text := s.sc.Text()

		if s.line <= headerLines {
			continue
		}

		if !itemPattern.MatchString(text) {
			if s.open == nil {
				s.err = &MalformedStreamError{
					Line: s.line,
					Text: text,
					Msg:  "expected item header",
				}
				s.done = true
				return false
			}
			s.open = append(s.open, strings.TrimSpace(text))
			continue
		}

		prev, prevLine := s.open, s.openLine
		s.open = []string{strings.TrimSpace(text)}
		s.openLine = s.line

		if prev != nil {
			s.block, s.blockLine = prev, prevLine
			return true
		}
	}

	s.done = true

	if err := s.sc.Err(); err != nil {
		s.err = errors.Wrap(err, "reading qstat output")
		return false
	}

	if s.open != nil {
		s.block, s.blockLine = s.open, s.openLine
		s.open = nil
		return true
	}

	return false
}

// Block returns the trimmed lines of the current item.
func (s *blockScanner) Block() []string {
	return s.block
}

// BlockLine returns the line number of the current item's header line.
func (s *blockScanner) BlockLine() int {
	return s.blockLine
}

// Err returns the error that stopped the scan, if any.
func (s *blockScanner) Err() error {
	return s.err
}
