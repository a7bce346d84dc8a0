// Package memory provides the long-term creation memory: persisted records of
// past generation runs, their lexical tags, and similarity retrieval over them.
package memory

import "time"

// CreationRecord is the persisted summary of one generation run.
// Records are immutable once inserted.
type CreationRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	OriginalPrompt string    `json:"original_prompt"`
	ExpandedPrompt string    `json:"expanded_prompt"`
	ImagePath      string    `json:"image_path"`
	// ModelPath is empty when the 3D stage produced nothing.
	ModelPath string `json:"model_path"`
}

// HasModel reports whether the run produced a 3D model.
func (r CreationRecord) HasModel() bool {
	return r.ModelPath != ""
}
