package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func intProperty(description string, min, max int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"minimum":     min,
		"maximum":     max,
	}
}

var seedProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Optional k-means seed for reproducible colors",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Read an image file's dimensions, format, color depth and size without rendering it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "cartoon_load",
			Description: "Select a source photo and render it as a cartoon with the current parameters. Returns the render report with palette and a PNG preview.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a PNG, JPEG, BMP, GIF, TIFF or WebP photo"),
					"seed": seedProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cartoon_render",
			Description: "Re-render the cartoon, optionally changing the source or any parameter. Omitted values keep their current setting. A newer render cancels one still running.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty("Optional new source image path"),
					"edge_intensity": intProperty("Edge intensity (100-500). Only affects output when the server runs in scaled edge mode", 100, 500),
					"color_levels":   intProperty("Number of colors in the cartoon palette (2-20)", 2, 20),
					"blur_level":     intProperty("Median blur window (1-15); even values round up to odd", 1, 15),
					"seed":           seedProperty,
					"include_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG preview of the result. Default true",
						"default":     true,
					},
				},
			},
		},
		{
			Name:        "cartoon_stencil",
			Description: "Compute only the black edge stencil for the source and return it as a PNG preview with the share of edge pixels. Does not change the current result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty("Optional image path; defaults to the current source"),
					"edge_intensity": intProperty("Edge intensity (100-500)", 100, 500),
					"blur_level":     intProperty("Median blur window (1-15)", 1, 15),
				},
			},
		},
		{
			Name:        "cartoon_save",
			Description: "Save the current cartoon. The format follows the extension: .png, .jpg/.jpeg, .bmp, .tif/.tiff or .gif. The file is written atomically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_path": pathProperty("Absolute destination path"),
					"jpeg_quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality (1-100). Default 95",
						"minimum":     1,
						"maximum":     100,
					},
				},
				"required": []string{"output_path"},
			},
		},

		// Session state
		{
			Name:        "cartoon_parameters",
			Description: "Describe parameter ranges, defaults, current values and the server's edge mode.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "cartoon_status",
			Description: "Report the selected source, current parameters, request count and the last successful render.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
