// Package tools defines the ADK tools that let an agent generate scenes and
// browse past creations.
package tools

import (
	"context"
	"fmt"

	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/pipeline"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// Runner executes one generation run.
type Runner interface {
	Run(ctx context.Context, prompt string) pipeline.Result
}

// ToolsConfig holds dependencies for creating tools.
type ToolsConfig struct {
	Runner    Runner
	Retriever memory.Retriever
}

// --- Tool Input/Output Structs ---

// GenerateSceneArgs is the input for the generate_scene tool.
type GenerateSceneArgs struct {
	Prompt string `json:"prompt" jsonschema:"Short description of the scene to create"`
}

// GenerateSceneResult is the output for the generate_scene tool.
type GenerateSceneResult struct {
	Success bool               `json:"success"`
	Data    *pipeline.Response `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// SearchCreationsArgs is the input for the search_creations tool.
type SearchCreationsArgs struct {
	Query string `json:"query" jsonschema:"Words describing the past scenes to look for"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of creations to return"`
}

// SearchCreationsResult is the output for the search_creations tool.
type SearchCreationsResult struct {
	Success bool                    `json:"success"`
	Data    []memory.CreationRecord `json:"data,omitempty"`
	Message string                  `json:"message,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// --- Tool Handlers ---

func generateScene(ctx context.Context, runner Runner, args GenerateSceneArgs) GenerateSceneResult {
	res := runner.Run(ctx, args.Prompt)
	resp := res.Response()
	if !res.OK() {
		return GenerateSceneResult{Success: false, Data: &resp, Error: res.Reason()}
	}
	return GenerateSceneResult{Success: true, Data: &resp}
}

func searchCreations(ctx context.Context, retriever memory.Retriever, args SearchCreationsArgs) SearchCreationsResult {
	if args.Query == "" {
		return SearchCreationsResult{Success: false, Error: "query is required"}
	}

	records, err := retriever.QuerySimilar(ctx, args.Query, args.Limit)
	if err != nil {
		return SearchCreationsResult{Success: false, Error: fmt.Sprintf("failed to search creations: %v", err)}
	}
	if len(records) == 0 {
		return SearchCreationsResult{Success: true, Message: "No related creations found."}
	}
	return SearchCreationsResult{Success: true, Data: records}
}

func createGenerateSceneTool(cfg ToolsConfig) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "generate_scene",
		Description: "Generate a detailed scene description, an image and a 3D model from a short prompt. Past creations mentioned in the prompt are used as inspiration.",
	}, func(ctx tool.Context, args GenerateSceneArgs) (GenerateSceneResult, error) {
		return generateScene(ctx, cfg.Runner, args), nil
	})
}

func createSearchCreationsTool(cfg ToolsConfig) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "search_creations",
		Description: "Search previously generated scenes that share words with the query. Returns their prompts, descriptions and file paths.",
	}, func(ctx tool.Context, args SearchCreationsArgs) (SearchCreationsResult, error) {
		return searchCreations(ctx, cfg.Retriever, args), nil
	})
}

// BuildTools creates all agent tools with the given configuration.
func BuildTools(cfg ToolsConfig) ([]tool.Tool, error) {
	var tools []tool.Tool

	generateTool, err := createGenerateSceneTool(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create generate_scene tool: %w", err)
	}
	tools = append(tools, generateTool)

	searchTool, err := createSearchCreationsTool(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_creations tool: %w", err)
	}
	tools = append(tools, searchTool)

	return tools, nil
}
