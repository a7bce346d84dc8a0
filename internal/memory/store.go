package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is the number of similar creations returned when the caller
// does not ask for a specific amount.
const DefaultLimit = 3

// ErrEmptyPrompt is returned by Insert for a record without an original prompt.
var ErrEmptyPrompt = errors.New("memory: original prompt is required")

// ErrNotFound is returned when a creation id does not exist.
var ErrNotFound = errors.New("memory: creation not found")

// Retriever finds past creations related to a prompt.
// The generation pipeline depends only on this interface so the lexical
// strategy can be replaced without touching the orchestrator.
type Retriever interface {
	// QuerySimilar returns up to limit records ranked by how many tags they
	// share with the prompt. A prompt without qualifying tokens yields no records.
	QuerySimilar(ctx context.Context, prompt string, limit int) ([]CreationRecord, error)
}

// Recorder persists new creations.
type Recorder interface {
	// Insert writes the record and its derived tags atomically and returns its id.
	Insert(ctx context.Context, rec *CreationRecord) (string, error)
}

// Store defines the contract for the creation memory.
// It exclusively owns both the creations and the tags relations.
type Store interface {
	Retriever
	Recorder

	// Get loads a single creation by id.
	Get(ctx context.Context, id string) (*CreationRecord, error)

	// Recent lists the newest creations first.
	Recent(ctx context.Context, limit int) ([]CreationRecord, error)

	// Tags returns the stored tags of a creation, sorted.
	Tags(ctx context.Context, id string) ([]string, error)

	// Count returns the number of stored creations.
	Count(ctx context.Context) (int, error)

	// InitSchema creates the tables if they don't exist.
	InitSchema(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// prepareRecord validates rec and fills in the id and timestamp when unset.
func prepareRecord(rec *CreationRecord) error {
	if rec == nil || strings.TrimSpace(rec.OriginalPrompt) == "" {
		return ErrEmptyPrompt
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
