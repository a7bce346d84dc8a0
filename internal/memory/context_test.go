package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
	assert.Equal(t, "", BuildContext([]CreationRecord{}))
}

func TestBuildContext_RendersEveryRecord(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	records := []CreationRecord{
		{ID: "a", Timestamp: ts, OriginalPrompt: "misty mountain forest", ExpandedPrompt: "Pine trees wrapped in fog."},
		{ID: "b", Timestamp: ts.Add(time.Hour), OriginalPrompt: "desert castle", ExpandedPrompt: "Sandstone towers at dusk."},
	}

	got := BuildContext(records)

	assert.True(t, strings.HasPrefix(got, contextHeader))
	assert.True(t, strings.HasSuffix(got, contextFooter))
	assert.Contains(t, got, "- Title: misty mountain forest\n  Expanded Description: Pine trees wrapped in fog.\n  Created on: 2025-03-14T09:26:53Z\n\n")
	assert.Contains(t, got, "- Title: desert castle\n")
	assert.Less(t, strings.Index(got, "misty mountain"), strings.Index(got, "desert castle"))
}

func TestTitles(t *testing.T) {
	records := []CreationRecord{{OriginalPrompt: "one"}, {OriginalPrompt: "two"}}
	assert.Equal(t, []string{"one", "two"}, Titles(records))
	assert.Equal(t, []string{}, Titles(nil))
}
