package harness

import "github.com/roach88/alkali/internal/transform"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Output is the rewritten expression or program; empty on error.
	Output string `json:"output"`

	// Sites lists rewritten roots for source scenarios.
	Sites []transform.Site `json:"sites,omitempty"`

	// Err is the classified rewrite error, if any.
	Err string `json:"error,omitempty"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
