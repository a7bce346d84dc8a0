// Package llm provides the text completion engine and the prompt expander built on it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"
)

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Sampling holds the decoding knobs passed with every completion.
type Sampling struct {
	Temperature float32
	TopP        float32
	MaxTokens   int32
}

// DefaultSampling is the fixed sampling policy used for prompt expansion.
var DefaultSampling = Sampling{Temperature: 0.5, TopP: 0.95, MaxTokens: 512}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, s Sampling) (string, error)
}

// LoadError reports that the completion engine could not be initialized.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("completion engine failed to load: %v", e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// GenerationError reports a failed completion on a loaded engine.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("completion failed: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmptyCompletion is wrapped in a GenerationError when the model returns no text.
var ErrEmptyCompletion = errors.New("empty completion")

// generator is the subset of *genai.Models used by the engine.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// EngineConfig configures the genai-backed completion engine.
type EngineConfig struct {
	APIKey string
	Model  string
}

// Engine is a process-wide completion engine backed by the Google GenAI client.
// The client is created on first use and reused afterwards. Calls are
// serialized because the engine is not assumed to be reentrant; a call
// waiting for its turn gives up when its context is done.
type Engine struct {
	cfg    EngineConfig
	logger *zap.Logger

	sem *semaphore.Weighted

	mu     sync.Mutex // guards models
	models generator
	load   func(ctx context.Context) (generator, error)
}

// NewEngine creates an unloaded engine. Nothing is dialed until the first Complete.
func NewEngine(cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "completion_engine")),
		sem:    semaphore.NewWeighted(1),
	}
	e.load = e.loadGenAI
	return e
}

// Loaded reports whether the underlying client has been created.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.models != nil
}

// Complete generates text for prompt with the given sampling settings.
// A failed load leaves the engine unloaded so a later call can try again.
func (e *Engine) Complete(ctx context.Context, prompt string, s Sampling) (string, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.sem.Release(1)

	models, err := e.ensureLoaded(ctx)
	if err != nil {
		return "", err
	}

	resp, err := models.GenerateContent(ctx, e.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.Temperature),
		TopP:            genai.Ptr(s.TopP),
		MaxOutputTokens: s.MaxTokens,
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if resp == nil {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Err: ErrEmptyCompletion}
	}
	return text, nil
}

// ensureLoaded returns the client, creating it if needed. Callers hold sem.
func (e *Engine) ensureLoaded(ctx context.Context) (generator, error) {
	e.mu.Lock()
	models := e.models
	e.mu.Unlock()
	if models != nil {
		return models, nil
	}

	e.logger.Info("initializing completion engine", zap.String("model", e.cfg.Model))
	models, err := e.load(ctx)
	if err != nil {
		e.logger.Error("completion engine failed to load", zap.Error(err))
		return nil, &LoadError{Err: err}
	}

	e.mu.Lock()
	e.models = models
	e.mu.Unlock()
	e.logger.Info("completion engine loaded")
	return models, nil
}

func (e *Engine) loadGenAI(ctx context.Context) (generator, error) {
	if e.cfg.APIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}

// Ensure Engine implements Completer
var _ Completer = (*Engine)(nil)
