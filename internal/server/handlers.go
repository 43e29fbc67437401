package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/imaging"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
	"github.com/ironsheep/ad-template-matcher/internal/scoring"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "template_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data is the error's code/message map.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", apperrors.As(err).ToMap())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Validates required arguments
//  3. Calls the matcher service
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Template analysis
	case "template_analyze":
		return s.handleTemplateAnalyze(ctx, args)
	case "template_detect_regions":
		return s.handleTemplateDetectRegions(ctx, args)
	case "template_crop_region":
		return s.handleTemplateCropRegion(args)

	// Selection
	case "template_select":
		return s.handleTemplateSelect(ctx, args)
	case "template_rank":
		return s.handleTemplateRank(ctx, args)

	// Cache inspection
	case "template_list":
		return s.handleTemplateList()
	case "template_get":
		return s.handleTemplateGet(args)

	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown tool: %s", name))
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; absent arguments decode as zero.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// === Template Analysis Handlers ===

type templateAnalyzeArgs struct {
	Path       string `json:"path"`
	TemplateID string `json:"template_id"`
}

func (s *Server) handleTemplateAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateAnalyzeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperrors.InvalidInput("path is required")
	}

	id := matcher.TemplateID(a.TemplateID, s.idSuffix)
	if a.TemplateID == "" {
		id = matcher.TemplateIDFromPath(a.Path, s.idSuffix)
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, apperrors.As(err).WithTemplate(id)
	}
	defer s.images.Evict(a.Path)

	return s.svc.AnalyzeAndCache(ctx, id, img)
}

type templateDetectArgs struct {
	Path     string `json:"path"`
	Annotate bool   `json:"annotate"`
}

// DetectRegionsResult lists the deduplicated regions of one image. Annotated
// holds the image with numbered region outlines when requested.
type DetectRegionsResult struct {
	Width     int                     `json:"width"`
	Height    int                     `json:"height"`
	Count     int                     `json:"count"`
	Regions   []layout.LabeledRegion  `json:"regions"`
	Annotated *imaging.AnnotateResult `json:"annotated,omitempty"`
}

// Outline colors by region kind.
const (
	pictureOutline = "#E53935"
	textOutline    = "#1E88E5"
	otherOutline   = "#9E9E9E"
)

func (s *Server) handleTemplateDetectRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperrors.InvalidInput("path is required")
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer s.images.Evict(a.Path)

	regions, err := s.svc.DetectRegions(ctx, img)
	if err != nil {
		return nil, err
	}
	result := &DetectRegionsResult{
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Count:   len(regions),
		Regions: regions,
	}
	if a.Annotate {
		outlines := make([]imaging.Outline, len(regions))
		for i, r := range regions {
			c := otherOutline
			switch {
			case layout.IsPictureLike(r.Label):
				c = pictureOutline
			case layout.IsText(r.Label):
				c = textOutline
			}
			outlines[i] = imaging.Outline{Rect: r.Box.Rect(), Color: c}
		}
		if result.Annotated, err = imaging.Annotate(img, outlines); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type templateCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleTemplateCropRegion(args json.RawMessage) (interface{}, error) {
	a := templateCropArgs{Scale: 1.0}
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperrors.InvalidInput("path is required")
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer s.images.Evict(a.Path)

	result, err := imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return result, nil
}

// === Selection Handlers ===

func (s *Server) handleTemplateSelect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var ad scoring.AdContent
	if err := unmarshalArgs(args, &ad); err != nil {
		return nil, err
	}
	return s.svc.Select(ctx, ad)
}

// RankResult lists every cached template's score, best first.
type RankResult struct {
	Count   int                   `json:"count"`
	Results []scoring.ScoreResult `json:"results"`
}

func (s *Server) handleTemplateRank(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var ad scoring.AdContent
	if err := unmarshalArgs(args, &ad); err != nil {
		return nil, err
	}
	results, err := s.svc.Rank(ctx, ad)
	if err != nil {
		return nil, err
	}
	return &RankResult{Count: len(results), Results: results}, nil
}

// === Cache Inspection Handlers ===

// TemplateListResult lists the cached templates in cache order.
type TemplateListResult struct {
	Count     int           `json:"count"`
	Templates []cache.Entry `json:"templates"`
}

func (s *Server) handleTemplateList() (interface{}, error) {
	snap, err := s.svc.Templates()
	if err != nil {
		return nil, err
	}
	return &TemplateListResult{Count: snap.Len(), Templates: snap.Entries()}, nil
}

type templateGetArgs struct {
	TemplateID string `json:"template_id"`
}

func (s *Server) handleTemplateGet(args json.RawMessage) (interface{}, error) {
	var a templateGetArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TemplateID == "" {
		return nil, apperrors.InvalidInput("template_id is required")
	}

	md, ok, err := s.svc.Store().Get(a.TemplateID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.TemplateNotFound(a.TemplateID)
	}
	return &cache.Entry{ID: a.TemplateID, Metadata: md}, nil
}
