package sanity

import (
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of one check: the metric must not exceed MaxAllowed
// (or, for row-count checks, must reach MinRequired).
type Result struct {
	Name       string  `json:"name"`
	Metric     float64 `json:"metric"`
	Threshold  float64 `json:"threshold"`
	Passed     bool    `json:"passed"`
	Note       string  `json:"note"`
	ErrMessage string  `json:"error,omitempty"`
}

// Report collects check results
type Report struct {
	Title   string   `json:"title"`
	Results []Result `json:"results"`
}

// Failure lists the failed checks of a report
type Failure struct {
	Title    string
	Failures []Result
}

func (e *Failure) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("%s: %d check(s) failed: %s", e.Title, len(e.Failures), strings.Join(names, ", "))
}

// Add records a "metric <= max" check
func (r *Report) Add(name string, metric, maxAllowed float64, note string) {
	r.Results = append(r.Results, Result{
		Name:      name,
		Metric:    metric,
		Threshold: maxAllowed,
		Passed:    metric <= maxAllowed,
		Note:      note,
	})
}

// AddMin records a "metric >= min" check
func (r *Report) AddMin(name string, metric, minRequired float64, note string) {
	r.Results = append(r.Results, Result{
		Name:      name,
		Metric:    metric,
		Threshold: minRequired,
		Passed:    metric >= minRequired,
		Note:      note,
	})
}

// AddError records a check that could not run
func (r *Report) AddError(name string, err error, note string) {
	r.Results = append(r.Results, Result{Name: name, Passed: false, Note: note, ErrMessage: err.Error()})
}

// Passed reports whether every check passed
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Err returns a *Failure when any check failed
func (r *Report) Err() error {
	var failures []Result
	for _, res := range r.Results {
		if !res.Passed {
			failures = append(failures, res)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &Failure{Title: r.Title, Failures: failures}
}

// Print writes a PASS/FAIL table
func (r *Report) Print(w io.Writer) {
	line := strings.Repeat("-", 92)
	fmt.Fprintln(w, r.Title)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%-36s %-7s %14s %12s  %s\n", "CHECK", "STATUS", "METRIC", "THRESHOLD", "NOTE")
	fmt.Fprintln(w, line)
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		note := res.Note
		if res.ErrMessage != "" {
			note = "error: " + res.ErrMessage
		}
		fmt.Fprintf(w, "%-36s %-7s %14.4f %12.4f  %s\n", res.Name, status, res.Metric, res.Threshold, note)
	}
	fmt.Fprintln(w, line)
	if r.Passed() {
		fmt.Fprintln(w, "RESULT: PASS")
	} else {
		fmt.Fprintln(w, "RESULT: FAIL")
	}
}
