package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_ResponseSuccess(t *testing.T) {
	res := Result{
		Status:         StatusSuccess,
		CreationID:     "id-1",
		OriginalPrompt: "castle",
		ExpandedPrompt: "A castle.",
		ImagePath:      "/out/a.png",
	}

	data, err := json.Marshal(res.Response())
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "", body["model_path"])
	assert.Equal(t, []any{}, body["similar_creations"])
	assert.NotContains(t, body, "reason")
}

func TestResult_ResponseListsSimilarCreations(t *testing.T) {
	res := Result{Status: StatusSuccess, CreationID: "id-2", SimilarCreations: []string{"mountain forest"}}

	data, err := json.Marshal(res.Response())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"similar_creations":["mountain forest"]`)
}

func TestResult_ResponseFailure(t *testing.T) {
	res := Result{
		Status: StatusFailure,
		Err:    newError(CodeServiceCall, StageImage, "text-to-image call failed", errors.New("timeout")),
	}

	resp := res.Response()
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Equal(t, "text-to-image call failed: timeout", resp.Reason)
	assert.Equal(t, CodeServiceCall, resp.Code)
	assert.Equal(t, StageImage, resp.Stage)
	assert.Empty(t, resp.CreationID)
}

func TestResult_Summary(t *testing.T) {
	ok := Result{Status: StatusSuccess, CreationID: "id-1", ImagePath: "/out/a.png", ExpandedPrompt: "A castle."}
	assert.Contains(t, ok.Summary(), "Model: (not generated)")

	failed := Result{Status: StatusFailure, Err: newError(CodeValidation, StageValidate, "missing prompt", nil)}
	assert.Equal(t, "generation failed at validate: missing prompt", failed.Summary())
}

func TestCodeOf(t *testing.T) {
	err := newError(CodeStorage, StagePersist, "failed", nil)
	assert.Equal(t, CodeStorage, CodeOf(err))
	assert.Equal(t, CodeStorage, CodeOf(errors.Join(errors.New("x"), err)))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}
