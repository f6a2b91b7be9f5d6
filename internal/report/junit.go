package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Document is a JUnit-style testsuite element, the structured report artifact
// emitted once per pipeline.
type Document struct {
	XMLName  xml.Name `xml:"testsuite"`
	Name     string   `xml:"name,attr"`
	Tests    int      `xml:"tests,attr"`
	Failures int      `xml:"failures,attr"`
	Errors   int      `xml:"errors,attr"`
	Skipped  int      `xml:"skipped,attr"`
	Time     float64  `xml:"time,attr"`
	Cases    []Case   `xml:"testcase"`
}

// Case is one testcase element. At most one of Failure, Error, Skipped is set.
type Case struct {
	Name      string  `xml:"name,attr"`
	Failure   *Detail `xml:"failure,omitempty"`
	Error     *Detail `xml:"error,omitempty"`
	Skipped   *Detail `xml:"skipped,omitempty"`
	SystemOut string  `xml:"system-out,omitempty"`
}

// Detail carries diagnostic text for a non-passing case.
type Detail struct {
	Message string `xml:"message,attr,omitempty"`
	Body    string `xml:",chardata"`
}

// BuildDocument assembles the report document for one fully consumed stream.
func BuildDocument(suite string, cases []CaseResult, summary Summary) Document {
	doc := Document{
		Name:     suite,
		Tests:    summary.Total,
		Failures: summary.Failed,
		Errors:   summary.Errored,
		Skipped:  summary.Skipped,
		Time:     summary.Duration.Seconds(),
		Cases:    make([]Case, 0, len(cases)),
	}
	for _, c := range cases {
		xc := Case{Name: c.Name, SystemOut: c.Output}
		detail := &Detail{Message: c.Status, Body: c.Payload}
		switch c.Status {
		case StatusFailed:
			xc.Failure = detail
		case StatusErrored:
			xc.Error = detail
		case StatusSkipped:
			xc.Skipped = detail
		}
		doc.Cases = append(doc.Cases, xc)
	}
	return doc
}

// WriteJUnit persists the document at path atomically: the XML is written to
// a temporary file in the target directory and renamed into place, so a crash
// mid-write never leaves a partial artifact behind.
func WriteJUnit(path string, doc Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.xml")
	if err != nil {
		return fmt.Errorf("create temporary report: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	enc := xml.NewEncoder(tmp)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report %q: %w", path, err)
	}
	if _, err := tmp.WriteString("\n"); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report %q: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish report %q: %w", path, err)
	}
	return nil
}

// ReadJUnit loads a report document, used by tests and the convert command.
func ReadJUnit(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read report %q: %w", path, err)
	}
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse report %q: %w", path, err)
	}
	return doc, nil
}
