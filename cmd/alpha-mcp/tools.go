package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

const defaultLeaderboardLimit = 25

type PeriodArgs struct {
	Season int `json:"season" jsonschema:"Season, e.g. 2024 (required)"`
	Week   int `json:"week" jsonschema:"Through-week (0 = full season)"`
}

type ScorePlayerArgs struct {
	PlayerID string `json:"player_id" jsonschema:"Player id (required)"`
	Season   int    `json:"season" jsonschema:"Season, e.g. 2024 (required)"`
	Week     int    `json:"week" jsonschema:"Through-week (0 = full season)"`
	Force    bool   `json:"force" jsonschema:"Recompute instead of returning the cached score"`
}

type LeaderboardArgs struct {
	Season   int    `json:"season" jsonschema:"Season, e.g. 2024 (required)"`
	Week     int    `json:"week" jsonschema:"Through-week (0 = full season)"`
	Position string `json:"position" jsonschema:"QB|RB|WR|TE (empty = all)"`
	Limit    int    `json:"limit" jsonschema:"Entries to return (default 25)"`
}

type BatchStatusArgs struct {
	BatchID string `json:"batch_id" jsonschema:"Id returned by trigger_batch (required)"`
}

type CalibrationArgs struct {
	Season   int    `json:"season" jsonschema:"Season, e.g. 2024 (required)"`
	Week     int    `json:"week" jsonschema:"Through-week (0 = full season)"`
	Position string `json:"position" jsonschema:"QB|RB|WR|TE (required)"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// tools exposes service operations as MCP tools.
type tools struct {
	svc *service.Service
}

func period(season, week int) (model.Period, error) {
	p := model.Period{Season: season, ThroughWeek: week}
	return p, p.Validate()
}

func (t *tools) register(server *mcp.Server) []toolInfo {
	registry := make([]toolInfo, 0, 6)
	addTool(server, &registry, &mcp.Tool{
		Name:        "score_player",
		Description: "Pillar scores, alpha, tier and confidence of one player for a period",
	}, t.scorePlayer)
	addTool(server, &registry, &mcp.Tool{
		Name:        "leaderboard",
		Description: "Ranked alpha scores of a period, optionally for one position",
	}, t.leaderboard)
	addTool(server, &registry, &mcp.Tool{
		Name:        "trigger_batch",
		Description: "Queue a recomputation of every player of a period; returns a batch id",
	}, t.triggerBatch)
	addTool(server, &registry, &mcp.Tool{
		Name:        "batch_status",
		Description: "Progress of a queued batch: status, processed, skipped, errors",
	}, t.batchStatus)
	addTool(server, &registry, &mcp.Tool{
		Name:        "fit_calibration",
		Description: "Fit and store a position's calibration model from the period's reference benchmarks",
	}, t.fitCalibration)
	addTool(server, &registry, &mcp.Tool{
		Name:        "calibration_model",
		Description: "Stored calibration model of a position for a period",
	}, t.calibrationModel)
	return registry
}

func (t *tools) scorePlayer(ctx context.Context, _ *mcp.CallToolRequest, args ScorePlayerArgs) (*mcp.CallToolResult, any, error) {
	if args.PlayerID == "" {
		return toolError(fmt.Errorf("player_id is required")), nil, nil
	}
	p, err := period(args.Season, args.Week)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(t.svc.ScoreOne(ctx, args.PlayerID, p, args.Force))
}

func (t *tools) leaderboard(ctx context.Context, _ *mcp.CallToolRequest, args LeaderboardArgs) (*mcp.CallToolResult, any, error) {
	p, err := period(args.Season, args.Week)
	if err != nil {
		return toolError(err), nil, nil
	}
	var pos model.Position
	if args.Position != "" {
		if pos, err = model.ParsePosition(args.Position); err != nil {
			return toolError(err), nil, nil
		}
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	return toolJSON(t.svc.Leaderboard(ctx, p, pos, limit))
}

func (t *tools) triggerBatch(ctx context.Context, _ *mcp.CallToolRequest, args PeriodArgs) (*mcp.CallToolResult, any, error) {
	p, err := period(args.Season, args.Week)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(t.svc.TriggerBatch(ctx, p))
}

func (t *tools) batchStatus(ctx context.Context, _ *mcp.CallToolRequest, args BatchStatusArgs) (*mcp.CallToolResult, any, error) {
	if args.BatchID == "" {
		return toolError(fmt.Errorf("batch_id is required")), nil, nil
	}
	return toolJSON(t.svc.BatchStatus(ctx, args.BatchID))
}

func (t *tools) fitCalibration(ctx context.Context, _ *mcp.CallToolRequest, args CalibrationArgs) (*mcp.CallToolResult, any, error) {
	p, pos, err := calibrationTarget(args)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(t.svc.FitCalibration(ctx, p, pos))
}

func (t *tools) calibrationModel(ctx context.Context, _ *mcp.CallToolRequest, args CalibrationArgs) (*mcp.CallToolResult, any, error) {
	p, pos, err := calibrationTarget(args)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(t.svc.CalibrationModel(ctx, p, pos))
}

func calibrationTarget(args CalibrationArgs) (model.Period, model.Position, error) {
	p, err := period(args.Season, args.Week)
	if err != nil {
		return model.Period{}, "", err
	}
	if args.Position == "" {
		return model.Period{}, "", fmt.Errorf("position is required")
	}
	pos, err := model.ParsePosition(args.Position)
	return p, pos, err
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolJSON[T any](v T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
