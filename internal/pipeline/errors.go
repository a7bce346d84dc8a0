package pipeline

import (
	"errors"
	"fmt"
)

// Code classifies why a run failed.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeModelLoad   Code = "MODEL_LOAD"
	CodeGeneration  Code = "GENERATION"
	CodeServiceCall Code = "SERVICE_CALL"
	CodeStorage     Code = "STORAGE"
)

// Stage names a step of a run.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageResolve   Stage = "resolve"
	StageRetrieve  Stage = "retrieve"
	StageExpand    Stage = "expand"
	StageImage     Stage = "image"
	StageSaveImage Stage = "save_image"
	StageInspect   Stage = "inspect"
	StageModel     Stage = "model"
	StageSaveModel Stage = "save_model"
	StagePersist   Stage = "persist"
)

// Error is a run failure with its classification and the stage it happened in.
type Error struct {
	Code    Code   `json:"code"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code Code, stage Stage, message string, cause error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Cause: cause}
}

// CodeOf extracts the failure code from err, or "" if it carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
