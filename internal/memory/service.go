package memory

import (
	"context"
	"fmt"
	"strings"

	adkmemory "google.golang.org/adk/memory"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// memoryAuthor is the author attached to memory entries surfaced to agents.
const memoryAuthor = "scenecraft"

// Service exposes creation memory to ADK agents as a memory.Service.
type Service struct {
	retriever Retriever
	limit     int
}

// NewService creates a memory service that answers searches with the given retriever.
func NewService(retriever Retriever, limit int) *Service {
	return &Service{retriever: retriever, limit: normalizeLimit(limit)}
}

// AddSession implements memory.Service.
// Creations are recorded by the generation pipeline only, so sessions are not ingested.
func (s *Service) AddSession(ctx context.Context, sess session.Session) error {
	return nil
}

// Search implements memory.Service by running a lexical similarity query.
func (s *Service) Search(ctx context.Context, req *adkmemory.SearchRequest) (*adkmemory.SearchResponse, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return &adkmemory.SearchResponse{Memories: []adkmemory.Entry{}}, nil
	}

	records, err := s.retriever.QuerySimilar(ctx, req.Query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar creations: %w", err)
	}

	memories := make([]adkmemory.Entry, 0, len(records))
	for _, rec := range records {
		parts := []string{"Scene: " + rec.OriginalPrompt}
		if rec.ExpandedPrompt != "" {
			parts = append(parts, "Description: "+rec.ExpandedPrompt)
		}
		if rec.ImagePath != "" {
			parts = append(parts, "Image: "+rec.ImagePath)
		}
		if rec.HasModel() {
			parts = append(parts, "Model: "+rec.ModelPath)
		}

		// genai.Text returns []*Content, we need the first one
		contents := genai.Text(strings.Join(parts, "\n"))
		if len(contents) == 0 {
			continue
		}

		memories = append(memories, adkmemory.Entry{
			Content:   contents[0],
			Author:    memoryAuthor,
			Timestamp: rec.Timestamp,
		})
	}

	return &adkmemory.SearchResponse{Memories: memories}, nil
}

var _ adkmemory.Service = (*Service)(nil)
