// Package pipeline orchestrates one scene generation run: recall similar
// creations, expand the prompt, render an image, lift it to a 3D model and
// record the creation.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/easeaico/scenecraft/internal/artifact"
	"github.com/easeaico/scenecraft/internal/config"
	"github.com/easeaico/scenecraft/internal/llm"
	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/stub"
	"go.uber.org/zap"
)

const (
	imageResultKey = "result"
	modelResultKey = "generated_object"
)

// Expander elaborates a prompt, optionally using a memory context.
type Expander interface {
	Expand(ctx context.Context, userPrompt, memoryContext string) (string, error)
}

// AppResolver looks up the remote apps a user may call.
type AppResolver interface {
	Get(uid string) (config.AppConfig, bool)
}

// StubFactory builds a client restricted to the given app ids.
type StubFactory func(appIDs []string) stub.Client

// Options wires a Pipeline.
type Options struct {
	Retriever memory.Retriever
	Recorder  memory.Recorder
	Expander  Expander
	Apps      AppResolver
	// DefaultApps is used when Apps has no entry for the run identity.
	DefaultApps    []string
	NewStub        StubFactory
	Writer         *artifact.Writer
	TextToImageApp string
	ImageTo3DApp   string
	Timeouts       config.Timeouts
	Metrics        *Metrics
	Logger         *zap.Logger
	Clock          func() time.Time
}

// Pipeline runs generation requests. It holds no per-run state and may be
// shared by concurrent callers.
type Pipeline struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if opts.TextToImageApp == "" {
		opts.TextToImageApp = config.DefaultTextToImageApp
	}
	if opts.ImageTo3DApp == "" {
		opts.ImageTo3DApp = config.DefaultImageTo3DApp
	}
	return &Pipeline{
		opts:   opts,
		logger: logger.With(zap.String("component", "pipeline")),
		now:    now,
	}
}

// Run executes every stage in order. Failures of the 3D stage are logged and
// the run still succeeds without a model; every other failure ends the run.
func (p *Pipeline) Run(ctx context.Context, prompt string) Result {
	res := Result{OriginalPrompt: prompt}
	log := p.logger.With(zap.String("prompt", prompt))

	if strings.TrimSpace(prompt) == "" {
		return p.fail(log, res, newError(CodeValidation, StageValidate, "missing prompt", nil))
	}

	// One clock reading names the artifacts and stamps the record.
	now := p.now()

	var (
		appIDs []string
		client stub.Client
	)
	_ = p.stage(ctx, StageResolve, 0, func(context.Context) error {
		appIDs = p.resolveApps()
		client = p.opts.NewStub(appIDs)
		return nil
	})
	log.Info("resolved apps", zap.String("uid", config.SuperUser), zap.Strings("app_ids", appIDs))

	// Recall similar creations.
	var similar []memory.CreationRecord
	err := p.stage(ctx, StageRetrieve, p.opts.Timeouts.Retrieve, func(ctx context.Context) error {
		var err error
		similar, err = p.opts.Retriever.QuerySimilar(ctx, prompt, memory.DefaultLimit)
		return err
	})
	if err != nil {
		return p.fail(log, res, newError(CodeStorage, StageRetrieve, "failed to query similar creations", err))
	}
	res.SimilarCreations = memory.Titles(similar)
	memoryContext := memory.BuildContext(similar)
	log.Info("retrieved similar creations", zap.Int("count", len(similar)))

	// Expand the prompt.
	err = p.stage(ctx, StageExpand, p.opts.Timeouts.Expand, func(ctx context.Context) error {
		var err error
		res.ExpandedPrompt, err = p.opts.Expander.Expand(ctx, prompt, memoryContext)
		return err
	})
	if err != nil {
		var loadErr *llm.LoadError
		if errors.As(err, &loadErr) {
			return p.fail(log, res, newError(CodeModelLoad, StageExpand, "completion engine unavailable", err))
		}
		return p.fail(log, res, newError(CodeGeneration, StageExpand, "prompt expansion failed", err))
	}
	log.Info("expanded prompt", zap.String("expanded_prompt", res.ExpandedPrompt))

	// Render the image.
	var image []byte
	err = p.stage(ctx, StageImage, p.opts.Timeouts.Image, func(ctx context.Context) error {
		out, err := client.Call(ctx, p.opts.TextToImageApp, map[string]any{"prompt": res.ExpandedPrompt}, config.SuperUser)
		if err != nil {
			return err
		}
		image, err = stub.Bytes(out, imageResultKey)
		return err
	})
	if err != nil {
		return p.fail(log, res, newError(CodeServiceCall, StageImage, "text-to-image call failed", err))
	}
	if len(image) == 0 {
		return p.fail(log, res, newError(CodeServiceCall, StageImage, "text-to-image returned no image", nil))
	}

	stem := artifact.Stem(now, prompt)
	err = p.stage(ctx, StageSaveImage, 0, func(context.Context) error {
		var err error
		res.ImagePath, err = p.opts.Writer.Write(artifact.ImageName(stem), image)
		return err
	})
	if err != nil {
		return p.fail(log, res, newError(CodeStorage, StageSaveImage, "failed to save image", err))
	}
	log.Info("saved image", zap.String("path", res.ImagePath), zap.Int("bytes", len(image)))

	p.inspect(ctx, log, client)

	// Lift the image to a 3D model. Failures here are not fatal.
	var model []byte
	err = p.stage(ctx, StageModel, p.opts.Timeouts.Model, func(ctx context.Context) error {
		payload := map[string]any{"input_image": stub.EncodeBytes(image)}
		out, err := client.Call(ctx, p.opts.ImageTo3DApp, payload, config.SuperUser)
		if err != nil {
			return err
		}
		model, err = stub.Bytes(out, modelResultKey)
		return err
	})
	switch {
	case err != nil:
		log.Warn("image-to-3d call failed, continuing without a model", zap.Error(err))
	case len(model) == 0:
		log.Warn("image-to-3d returned no model, continuing without a model")
	default:
		err = p.stage(ctx, StageSaveModel, 0, func(context.Context) error {
			var err error
			res.ModelPath, err = p.opts.Writer.Write(artifact.ModelName(stem), model)
			return err
		})
		if err != nil {
			return p.fail(log, res, newError(CodeStorage, StageSaveModel, "failed to save model", err))
		}
		log.Info("saved model", zap.String("path", res.ModelPath), zap.Int("bytes", len(model)))
	}

	// Record the creation.
	err = p.stage(ctx, StagePersist, p.opts.Timeouts.Store, func(ctx context.Context) error {
		var err error
		res.CreationID, err = p.opts.Recorder.Insert(ctx, &memory.CreationRecord{
			Timestamp:      now.UTC(),
			OriginalPrompt: prompt,
			ExpandedPrompt: res.ExpandedPrompt,
			ImagePath:      res.ImagePath,
			ModelPath:      res.ModelPath,
		})
		return err
	})
	if err != nil {
		return p.fail(log, res, newError(CodeStorage, StagePersist, "failed to record creation", err))
	}

	res.Status = StatusSuccess
	p.opts.Metrics.observeRun(StatusSuccess, "")
	log.Info("creation saved",
		zap.String("creation_id", res.CreationID),
		zap.String("image_path", res.ImagePath),
		zap.String("model_path", res.ModelPath),
		zap.Strings("similar_creations", res.SimilarCreations),
	)
	return res
}

func (p *Pipeline) resolveApps() []string {
	if p.opts.Apps != nil {
		if c, ok := p.opts.Apps.Get(config.SuperUser); ok && len(c.AppIDs) > 0 {
			return c.AppIDs
		}
	}
	if len(p.opts.DefaultApps) > 0 {
		return p.opts.DefaultApps
	}
	return []string{p.opts.TextToImageApp, p.opts.ImageTo3DApp}
}

// inspect logs the 3D app's manifest and input schema. It never fails the run.
func (p *Pipeline) inspect(ctx context.Context, log *zap.Logger, client stub.Client) {
	_ = p.stage(ctx, StageInspect, p.opts.Timeouts.Model, func(ctx context.Context) error {
		manifest, err := client.Manifest(ctx, p.opts.ImageTo3DApp)
		if err != nil {
			log.Warn("failed to fetch image-to-3d manifest", zap.Error(err))
		} else {
			log.Debug("image-to-3d manifest", zap.Any("manifest", manifest))
		}

		schema, err := client.Schema(ctx, p.opts.ImageTo3DApp, "input")
		if err != nil {
			log.Warn("failed to fetch image-to-3d input schema", zap.Error(err))
		} else {
			log.Debug("image-to-3d input schema", zap.Any("schema", schema))
		}
		return nil
	})
}

// stage runs fn under an optional timeout and records its duration.
func (p *Pipeline) stage(ctx context.Context, stage Stage, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	p.opts.Metrics.observeStage(stage, time.Since(start))
	return err
}

func (p *Pipeline) fail(log *zap.Logger, res Result, err *Error) Result {
	res.Status = StatusFailure
	res.Err = err
	p.opts.Metrics.observeRun(StatusFailure, err.Code)
	log.Error("generation failed",
		zap.String("stage", string(err.Stage)),
		zap.String("code", string(err.Code)),
		zap.Error(err),
	)
	return res
}
