package luacell

import "github.com/luacell/luacell/value"

// EvaluationResult is the outcome of evaluating one code submission: the
// errors captured along the way and the packed value of the last
// value-producing statement, when there was one.
type EvaluationResult struct {
	Errors []ErrorEntry `json:"errors,omitempty"`
	Output *value.Value `json:"output,omitempty"`
}

// ErrorEntry attributes one captured error to a 1-based source line. Column
// is carried for interchange compatibility and is always zero. Line zero
// marks failures outside any statement, such as packing the output.
type ErrorEntry struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func newResult() *EvaluationResult {
	return &EvaluationResult{Errors: []ErrorEntry{}}
}
