package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/story"
)

// genericLocation stands in for the listener's place in tool prompts.
const genericLocation = "your location"

var selectCelestialTool = Tool{
	Name:        "select_celestial",
	Description: "Select the best celestial object visible at the given coordinates and date.",
	InputSchema: InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"latitude":  {Type: "number", Description: "Observer latitude in decimal degrees (-90 to 90)"},
			"longitude": {Type: "number", Description: "Observer longitude in decimal degrees (-180 to 180)"},
			"date":      {Type: "string", Description: "Date as YYYY-MM-DD; defaults to today"},
		},
		Required: []string{"latitude", "longitude"},
	},
}

var storyPromptTool = Tool{
	Name:        "get_story_prompt",
	Description: "Build the bedtime story prompt for a celestial object, with scientific facts filled in.",
	InputSchema: InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"object_name": {Type: "string", Description: "Object name, e.g. Jupiter or Vega"},
			"language":    {Type: "string", Description: "Story language code", Enum: []string{"en", "it", "fr", "es"}, Default: "en"},
		},
		Required: []string{"object_name"},
	},
}

var imagePromptTool = Tool{
	Name:        "generate_image_prompt",
	Description: "Describe where to search for a picture of a celestial object.",
	InputSchema: InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"object_name": {Type: "string", Description: "Object name, e.g. Jupiter or Vega"},
			"object_type": {Type: "string", Description: "Object type", Enum: []string{"planet", "star", "constellation", "nebula", "galaxy"}, Default: "star"},
		},
		Required: []string{"object_name"},
	},
}

func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) selectCelestial(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	var args struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Date      string   `json:"date"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Latitude == nil || args.Longitude == nil {
		return nil, errors.New("latitude and longitude are required")
	}

	obj, err := s.deps.Selector.Select(ctx, *args.Latitude, *args.Longitude, strings.TrimSpace(args.Date))
	if err != nil {
		return nil, err
	}
	return jsonResult(obj)
}

func (s *Server) storyPrompt(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
	var args struct {
		ObjectName string `json:"object_name"`
		Language   string `json:"language"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.ObjectName)
	if name == "" {
		return nil, errors.New("object_name is required")
	}

	return textResult(s.deps.Prompts.Prompt(story.Request{
		Object:     name,
		ObjectType: string(astro.Classify(s.deps.Catalog, name)),
		Location:   genericLocation,
		Facts:      s.deps.Facts.Facts(ctx, name),
		Language:   args.Language,
	})), nil
}

func (s *Server) imagePrompt(_ context.Context, raw json.RawMessage) (*ToolResult, error) {
	var args struct {
		ObjectName string `json:"object_name"`
		ObjectType string `json:"object_type"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.ObjectName)
	if name == "" {
		return nil, errors.New("object_name is required")
	}
	if args.ObjectType == "" {
		args.ObjectType = "star"
	}
	return jsonResult(s.deps.Images.Strategy(name, args.ObjectType))
}

func jsonResult(v any) (*ToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(out)), nil
}
