package scenario

import (
	"fmt"

	"tsolver/internal/observ"
	"tsolver/internal/subtype"
)

// Outcome is the verdict of one case.
type Outcome uint8

const (
	Pass Outcome = iota
	Fail
	// Broken means the case itself is malformed.
	Broken
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Broken:
		return "error"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// CaseResult is the result of one case. Number is the position among all
// cases of the file, in section order relation, evaluate, property, infer.
type CaseResult struct {
	Number  int     `json:"number"`
	Section string  `json:"section"`
	Index   int     `json:"index"`
	Label   string  `json:"label,omitempty"`
	Subject string  `json:"subject,omitempty"`
	Outcome Outcome `json:"outcome"`
	Got     string  `json:"got,omitempty"`
	Want    string  `json:"want,omitempty"`
	Detail  string  `json:"detail,omitempty"`

	// Reason explains a failed relation, when one was computed.
	Reason *subtype.Reason `json:"-"`
}

// Title names the case for humans.
func (c CaseResult) Title() string {
	if c.Label != "" {
		return fmt.Sprintf("%s[%d] %s", c.Section, c.Index, c.Label)
	}
	return fmt.Sprintf("%s[%d]", c.Section, c.Index)
}

// FileResult collects the results of one scenario file.
type FileResult struct {
	Path    string        `json:"path"`
	Name    string        `json:"name"`
	Cases   []CaseResult  `json:"cases"`
	Error   string        `json:"error,omitempty"`
	Timings observ.Report `json:"timings"`

	Err error `json:"-"`
}

// Counts tallies case outcomes.
func (r *FileResult) Counts() (pass, fail, broken int) {
	for _, c := range r.Cases {
		switch c.Outcome {
		case Pass:
			pass++
		case Fail:
			fail++
		default:
			broken++
		}
	}
	return pass, fail, broken
}

// OK reports whether the file loaded and every case passed.
func (r *FileResult) OK() bool {
	if r.Err != nil {
		return false
	}
	_, fail, broken := r.Counts()
	return fail == 0 && broken == 0
}

func (r *FileResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}
