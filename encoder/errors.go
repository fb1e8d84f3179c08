package encoder

import (
	"fmt"

	"github.com/nxlang/nxc/codegen"
)

// EncodingError carries the function label and instruction that failed to
// encode, mirroring the teacher's EncodingError (instruction + message +
// wrapped cause) but keyed on a codegen.Instruction rather than a parsed
// assembly line.
type EncodingError struct {
	FuncLabel string
	Instr     codegen.Instruction
	Message   string
	Wrapped   error
}

func (e *EncodingError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.FuncLabel, e.Instr.Op, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s %s", e.FuncLabel, e.Instr.Op, e.Message)
}

func (e *EncodingError) Unwrap() error { return e.Wrapped }

func newEncodingError(funcLabel string, instr codegen.Instruction, message string) *EncodingError {
	return &EncodingError{FuncLabel: funcLabel, Instr: instr, Message: message}
}
