package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// adContentSchema describes the advertisement accepted by selection tools.
func adContentSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"headline": map[string]interface{}{
				"type":        "string",
				"description": "Ad headline",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Ad body text; its length is matched against template text capacity",
			},
			"photos": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Photo references; the count is matched against template image slots",
			},
			"logo": map[string]interface{}{
				"type":        "string",
				"description": "Optional logo reference",
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Template analysis
		{
			Name:        "template_analyze",
			Description: "Analyze a template image: detect its regions, count relevant photo slots, measure text capacity and store the result in the template cache. Re-analyzing a template replaces only its own entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the template image (PNG, JPEG or GIF)",
					},
					"template_id": map[string]interface{}{
						"type":        "string",
						"description": "Template name. Defaults to the file name without extension; the configured id suffix is appended",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "template_detect_regions",
			Description: "Detect the labeled layout regions of a template image without caching anything. Nested duplicate picture boxes are removed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the template image",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the image with numbered region outlines as base64 PNG (pictures red, text blue)",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "template_crop_region",
			Description: "Crop a pixel region of a template image, e.g. a detected region box, and return it as base64 PNG. Coordinates must lie inside the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the template image",
					},
					"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
					"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
					"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
					"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the output",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Selection
		{
			Name:        "template_select",
			Description: "Select the cached template that best fits an ad. Score is 0.6 x photo fit + 0.4 x text fit; ties keep the earlier cached template. Fails if no templates are cached.",
			InputSchema: adContentSchema(),
		},
		{
			Name:        "template_rank",
			Description: "Score every cached template against an ad, best first.",
			InputSchema: adContentSchema(),
		},

		// Cache inspection
		{
			Name:        "template_list",
			Description: "List cached templates with their image slots and text capacity, in cache order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "template_get",
			Description: "Get the cached metadata of one template.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template_id": map[string]interface{}{
						"type":        "string",
						"description": "Full template id, including suffix",
					},
				},
				"required": []string{"template_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
