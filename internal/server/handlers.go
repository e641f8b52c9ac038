package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"time"

	"github.com/ironsheep/cartoonize-mcp/internal/cartoon"
	"github.com/ironsheep/cartoonize-mcp/internal/imaging"
	"github.com/ironsheep/cartoonize-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cartoon_load", "cartoon_render").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(context.Background(), params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_info":
		return s.handleImageInfo(args)

	// Rendering
	case "cartoon_load":
		return s.handleCartoonLoad(ctx, args)
	case "cartoon_render":
		return s.handleCartoonRender(ctx, args)
	case "cartoon_stencil":
		return s.handleCartoonStencil(args)
	case "cartoon_save":
		return s.handleCartoonSave(args)

	// Session state
	case "cartoon_parameters":
		return s.handleCartoonParameters()
	case "cartoon_status":
		return s.handleCartoonStatus()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

// === Image Information ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.Inspect(a.Path)
}

// === Rendering ===

// renderReport describes a finished render.
type renderReport struct {
	Source       string                 `json:"source"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	Format       string                 `json:"format"`
	Params       cartoon.Params         `json:"params"`
	KernelSize   int                    `json:"kernel_size"`
	BlockSize    int                    `json:"block_size"`
	EdgeMode     string                 `json:"edge_mode"`
	Generation   uint64                 `json:"generation"`
	ElapsedMs    int64                  `json:"elapsed_ms"`
	EdgeFraction float64                `json:"edge_fraction"`
	Compactness  float64                `json:"compactness"`
	Palette      *imaging.PaletteResult `json:"palette"`
	Preview      *imaging.PreviewResult `json:"preview,omitempty"`
}

type cartoonLoadArgs struct {
	Path string `json:"path"`
	Seed *int64 `json:"seed"`
}

func (s *Server) handleCartoonLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cartoonLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.render(ctx, session.Request{Source: a.Path, Seed: a.Seed}, true)
}

type cartoonRenderArgs struct {
	Path           string `json:"path"`
	EdgeIntensity  *int   `json:"edge_intensity"`
	ColorLevels    *int   `json:"color_levels"`
	BlurLevel      *int   `json:"blur_level"`
	Seed           *int64 `json:"seed"`
	IncludePreview *bool  `json:"include_preview"`
}

func (s *Server) handleCartoonRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cartoonRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	preview := true
	if a.IncludePreview != nil {
		preview = *a.IncludePreview
	}

	return s.render(ctx, session.Request{
		Source: a.Path,
		Params: session.Overrides{
			EdgeIntensity: a.EdgeIntensity,
			ColorLevels:   a.ColorLevels,
			BlurLevel:     a.BlurLevel,
		},
		Seed: a.Seed,
	}, preview)
}

func (s *Server) render(ctx context.Context, req session.Request, withPreview bool) (*renderReport, error) {
	r, err := s.session.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	res := r.Result

	colors := make([]color.NRGBA, len(res.Palette))
	counts := make([]int, len(res.Palette))
	for i, sw := range res.Palette {
		colors[i] = sw.Color
		counts[i] = sw.Count
	}

	report := &renderReport{
		Source:       r.Source,
		Width:        res.Image.Bounds().Dx(),
		Height:       res.Image.Bounds().Dy(),
		Format:       r.Info.Format,
		Params:       res.Params,
		KernelSize:   res.KernelSize,
		BlockSize:    res.BlockSize,
		EdgeMode:     res.EdgeMode.String(),
		Generation:   r.Generation,
		ElapsedMs:    r.Elapsed.Milliseconds(),
		EdgeFraction: res.EdgeFraction(),
		Compactness:  res.Compactness,
		Palette:      imaging.DescribePalette(colors, counts),
	}

	if withPreview {
		p, err := imaging.Preview(res.Image, s.cfg.PreviewMax)
		if err != nil {
			return nil, err
		}
		report.Preview = p
	}
	return report, nil
}

type cartoonStencilArgs struct {
	Path          string `json:"path"`
	EdgeIntensity *int   `json:"edge_intensity"`
	BlurLevel     *int   `json:"blur_level"`
}

// stencilReport describes an edge stencil preview.
type stencilReport struct {
	Source       string                 `json:"source"`
	Width        int                    `json:"width"`
	Height       int                    `json:"height"`
	KernelSize   int                    `json:"kernel_size"`
	BlockSize    int                    `json:"block_size"`
	EdgeMode     string                 `json:"edge_mode"`
	EdgeFraction float64                `json:"edge_fraction"`
	Preview      *imaging.PreviewResult `json:"preview"`
}

func (s *Server) handleCartoonStencil(args json.RawMessage) (interface{}, error) {
	var a cartoonStencilArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	res, err := s.session.Stencil(session.Request{
		Source: a.Path,
		Params: session.Overrides{EdgeIntensity: a.EdgeIntensity, BlurLevel: a.BlurLevel},
	})
	if err != nil {
		return nil, err
	}

	preview, err := imaging.Preview(res.Stencil, s.cfg.PreviewMax)
	if err != nil {
		return nil, err
	}

	return &stencilReport{
		Source:       res.Source,
		Width:        res.Stencil.Bounds().Dx(),
		Height:       res.Stencil.Bounds().Dy(),
		KernelSize:   res.Params.KernelSize(),
		BlockSize:    res.Params.BlockSize(s.cfg.EdgeMode),
		EdgeMode:     s.cfg.EdgeMode.String(),
		EdgeFraction: cartoon.EdgeCoverage(res.Stencil),
		Preview:      preview,
	}, nil
}

type cartoonSaveArgs struct {
	OutputPath  string `json:"output_path"`
	JPEGQuality int    `json:"jpeg_quality"`
}

func (s *Server) handleCartoonSave(args json.RawMessage) (interface{}, error) {
	var a cartoonSaveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	return s.session.Save(a.OutputPath, imaging.SaveOptions{JPEGQuality: a.JPEGQuality})
}

// === Session State ===

type paramRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type parametersReport struct {
	EdgeIntensity paramRange     `json:"edge_intensity"`
	ColorLevels   paramRange     `json:"color_levels"`
	BlurLevel     paramRange     `json:"blur_level"`
	Current       cartoon.Params `json:"current"`
	EdgeMode      string         `json:"edge_mode"`
	Clamp         bool           `json:"clamp"`
	Notes         []string       `json:"notes"`
}

func (s *Server) handleCartoonParameters() (interface{}, error) {
	notes := []string{
		"blur_level is the median window size; even values are rounded up to the next odd value",
		fmt.Sprintf("edges use an adaptive mean threshold with offset %d", cartoon.ThresholdOffset),
	}
	if s.cfg.EdgeMode == cartoon.EdgeFixed {
		notes = append(notes, fmt.Sprintf("edge_mode fixed: the threshold window is always %d, so edge_intensity has no visible effect", cartoon.ThresholdBlockSize))
	} else {
		notes = append(notes, "edge_mode scaled: the threshold window is 2*(edge_intensity/50)+1")
	}

	return &parametersReport{
		EdgeIntensity: paramRange{cartoon.MinEdgeIntensity, cartoon.MaxEdgeIntensity, cartoon.DefaultEdgeIntensity},
		ColorLevels:   paramRange{cartoon.MinColorLevels, cartoon.MaxColorLevels, cartoon.DefaultColorLevels},
		BlurLevel:     paramRange{cartoon.MinBlurLevel, cartoon.MaxBlurLevel, cartoon.DefaultBlurLevel},
		Current:       s.session.Params(),
		EdgeMode:      s.cfg.EdgeMode.String(),
		Clamp:         s.cfg.Clamp,
		Notes:         notes,
	}, nil
}

type statusReport struct {
	Source     string         `json:"source"`
	Params     cartoon.Params `json:"params"`
	Generation uint64         `json:"generation"`
	HasResult  bool           `json:"has_result"`
	Last       *lastRender    `json:"last_render,omitempty"`
}

type lastRender struct {
	Source     string         `json:"source"`
	Generation uint64         `json:"generation"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Params     cartoon.Params `json:"params"`
	Finished   string         `json:"finished"`
}

func (s *Server) handleCartoonStatus() (interface{}, error) {
	report := &statusReport{
		Source:     s.session.Source(),
		Params:     s.session.Params(),
		Generation: s.session.Generation(),
	}
	if cur := s.session.Current(); cur != nil {
		report.HasResult = true
		report.Last = &lastRender{
			Source:     cur.Source,
			Generation: cur.Generation,
			Width:      cur.Result.Image.Bounds().Dx(),
			Height:     cur.Result.Image.Bounds().Dy(),
			Params:     cur.Result.Params,
			Finished:   cur.Finished.Format(time.RFC3339),
		}
	}
	return report, nil
}
