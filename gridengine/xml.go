package gridengine

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Element and attribute names of "qstat -xml -r" output.
const (
	xmlJobList     = "job_list"
	xmlJobNumber   = "JB_job_number"
	xmlOwner       = "JB_owner"
	xmlName        = "JB_name"
	xmlState       = "state"
	xmlSlots       = "slots"
	xmlHardRequest = "hard_request"
	xmlRequestName = "name"
)

// XMLParser parses "qstat -xml -r" output. Jobs are the job_list elements of
// the document, running and pending ones alike, in document order.
type XMLParser struct {
	MemoryResource string
}

// NewXMLParser returns an XMLParser reading memory from the hard request of
// the given resource.
func NewXMLParser(memoryResource string) *XMLParser {
	return &XMLParser{MemoryResource: memoryResource}
}

// xmlNode captures an arbitrary element so that the number of children of
// each name can be checked.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) children(name string, pred func(*xmlNode) bool) []*xmlNode {
	var found []*xmlNode
	for i := range n.Children {
		child := &n.Children[i]
		if child.XMLName.Local != name {
			continue
		}
		if pred != nil && !pred(child) {
			continue
		}
		found = append(found, child)
	}
	return found
}

// Parse reads all jobs from r.
func (p *XMLParser) Parse(r io.Reader) ([]Job, error) {
	resource := p.MemoryResource
	if resource == "" {
		resource = DefaultMemoryResource
	}

	dec := xml.NewDecoder(r)
	jobs := []Job{}
	hasRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parsing qstat XML")
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		hasRoot = true

		if start.Name.Local != xmlJobList {
			continue
		}

		var node xmlNode
		if err := dec.DecodeElement(&node, &start); err != nil {
			return nil, errors.Wrap(err, "parsing qstat XML")
		}

		job, err := jobFromNode(&node, len(jobs), resource)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if !hasRoot {
		return nil, errors.New("qstat output is not an XML document")
	}

	return jobs, nil
}

func jobFromNode(node *xmlNode, index int, resource string) (Job, error) {
	id := fmt.Sprintf("#%d", index+1)
	if nums := node.children(xmlJobNumber, nil); len(nums) == 1 {
		id = strings.TrimSpace(nums[0].Text)
	}

	required := func(name string) (string, error) {
		found := node.children(name, nil)
		if len(found) != 1 {
			return "", &SchemaViolationError{Job: id, Field: name, Count: len(found)}
		}
		return strings.TrimSpace(found[0].Text), nil
	}

	job := Job{ID: id}
	var err error

	if job.Owner, err = required(xmlOwner); err != nil {
		return Job{}, err
	}
	if job.Name, err = required(xmlName); err != nil {
		return Job{}, err
	}
	if job.State, err = required(xmlState); err != nil {
		return Job{}, err
	}

	isMemory := func(n *xmlNode) bool {
		return n.attr(xmlRequestName) == resource
	}

	job.CPURequest = Request{Field: xmlSlots, Values: texts(node.children(xmlSlots, nil))}
	job.MemRequest = Request{Field: xmlHardRequest, Values: texts(node.children(xmlHardRequest, isMemory))}

	return job, nil
}

func texts(nodes []*xmlNode) []string {
	var values []string
	for _, n := range nodes {
		values = append(values, strings.TrimSpace(n.Text))
	}
	return values
}
