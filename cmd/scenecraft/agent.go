package main

import (
	"fmt"

	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/tools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

const agentInstruction = `You are a scene design assistant. You help users imagine scenes and turn
them into images and 3D models.

- When the user describes a scene they want, call generate_scene with a short prompt
  in their words. Report the image and model paths from the result, and say so
  plainly if no model was produced.
- When the user refers to something they made before, call search_creations first
  and use the matching prompts in the new request.
- Never invent file paths or creation ids.`

var agentCmd = &cobra.Command{
	Use:   "agent [launcher args]",
	Short: "Run the conversational scene agent",
	Long: `Starts an agent that can generate scenes and search past creations.
Remaining arguments are passed to the agent launcher (for example "console" or "web").`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.APIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY environment variable is required")
		}

		agentTools, err := tools.BuildTools(tools.ToolsConfig{
			Runner:    a.pipeline,
			Retriever: a.store,
		})
		if err != nil {
			return fmt.Errorf("failed to build tools: %w", err)
		}

		llmModel, err := gemini.NewModel(ctx, a.cfg.AgentModel, &genai.ClientConfig{
			APIKey:  a.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("failed to create LLM model: %w", err)
		}

		llmAgent, err := llmagent.New(llmagent.Config{
			Name:        "scene_designer",
			Description: "Designs scenes and generates images and 3D models from short prompts",
			Model:       llmModel,
			Instruction: agentInstruction,
			Tools:       agentTools,
		})
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		a.logger.Info("agent initialized", zap.String("model", a.cfg.AgentModel), zap.Int("tools", len(agentTools)))

		config := &launcher.Config{
			AgentLoader:   agent.NewSingleLoader(llmAgent),
			MemoryService: memory.NewService(a.store, memory.DefaultLimit),
		}
		l := full.NewLauncher()
		if err := l.Execute(ctx, config, args); err != nil {
			return fmt.Errorf("failed to run agent: %w\n\n%s", err, l.CommandLineSyntax())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)
}
