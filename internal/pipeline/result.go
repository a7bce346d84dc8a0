package pipeline

import (
	"fmt"
	"strings"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is the outcome of one run. On success the creation fields are set;
// on failure Err describes what went wrong and the creation fields hold
// whatever was produced before the failure.
type Result struct {
	Status           Status
	CreationID       string
	OriginalPrompt   string
	ExpandedPrompt   string
	ImagePath        string
	ModelPath        string
	SimilarCreations []string
	Err              *Error
}

// OK reports whether the run succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Reason is the human readable failure reason, empty on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	if r.Err.Cause != nil {
		return r.Err.Message + ": " + r.Err.Cause.Error()
	}
	return r.Err.Message
}

// Response is the JSON body returned by the service.
type Response struct {
	Status           Status   `json:"status"`
	CreationID       string   `json:"creation_id,omitempty"`
	OriginalPrompt   string   `json:"original_prompt,omitempty"`
	ExpandedPrompt   string   `json:"expanded_prompt,omitempty"`
	ImagePath        string   `json:"image_path,omitempty"`
	ModelPath        string   `json:"model_path"`
	SimilarCreations []string `json:"similar_creations"`
	Reason           string   `json:"reason,omitempty"`
	Code             Code     `json:"code,omitempty"`
	Stage            Stage    `json:"stage,omitempty"`
}

// Response converts the result into its wire form.
func (r Result) Response() Response {
	if !r.OK() {
		resp := Response{Status: StatusFailure, Reason: r.Reason()}
		if r.Err != nil {
			resp.Code = r.Err.Code
			resp.Stage = r.Err.Stage
		}
		return resp
	}
	similar := r.SimilarCreations
	if similar == nil {
		similar = []string{}
	}
	return Response{
		Status:           StatusSuccess,
		CreationID:       r.CreationID,
		OriginalPrompt:   r.OriginalPrompt,
		ExpandedPrompt:   r.ExpandedPrompt,
		ImagePath:        r.ImagePath,
		ModelPath:        r.ModelPath,
		SimilarCreations: similar,
	}
}

// Summary renders the result for a terminal.
func (r Result) Summary() string {
	if !r.OK() {
		stage := Stage("")
		if r.Err != nil {
			stage = r.Err.Stage
		}
		return fmt.Sprintf("generation failed at %s: %s", stage, r.Reason())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Creation %s\n", r.CreationID)
	fmt.Fprintf(&sb, "Image: %s\n", r.ImagePath)
	if r.ModelPath != "" {
		fmt.Fprintf(&sb, "Model: %s\n", r.ModelPath)
	} else {
		sb.WriteString("Model: (not generated)\n")
	}
	if len(r.SimilarCreations) > 0 {
		fmt.Fprintf(&sb, "Inspired by: %s\n", strings.Join(r.SimilarCreations, "; "))
	}
	fmt.Fprintf(&sb, "\n%s\n", r.ExpandedPrompt)
	return sb.String()
}
