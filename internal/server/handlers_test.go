package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/cartoonize-mcp/internal/cartoon"
)

// createTestImageFile writes a two-tone PNG into a temp dir and returns its path.
func createTestImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{220, 180, 40, 255}
			if y >= height/2 {
				c = color.NRGBA{30, 90, 160, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and decodes the JSON text content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return decoded, nil
}

func seededServer() *Server {
	seed := int64(1)
	cfg := DefaultConfig()
	cfg.Seed = &seed
	cfg.PreviewMax = 16
	return New(cfg)
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := New(DefaultConfig())
	imgPath := createTestImageFile(t, 100, 80)

	result, mcpErr := callTool(t, s, "image_info", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["width"] != float64(100) || result["height"] != float64(80) {
		t.Errorf("dimensions: got %vx%v, want 100x80", result["width"], result["height"])
	}
	if result["format"] != "png" {
		t.Errorf("format: got %v", result["format"])
	}
}

func TestHandleToolsCall_ImageInfo_MissingPath(t *testing.T) {
	s := New(DefaultConfig())
	_, mcpErr := callTool(t, s, "image_info", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", mcpErr)
	}
}

func TestHandleToolsCall_CartoonLoad(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 40, 30)

	result, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	if result["width"] != float64(40) || result["height"] != float64(30) {
		t.Errorf("dimensions: got %vx%v, want 40x30", result["width"], result["height"])
	}
	if result["generation"] != float64(1) {
		t.Errorf("generation: got %v, want 1", result["generation"])
	}
	if result["edge_mode"] != "fixed" || result["block_size"] != float64(9) {
		t.Errorf("edge settings: mode %v block %v", result["edge_mode"], result["block_size"])
	}

	preview, ok := result["preview"].(map[string]interface{})
	if !ok {
		t.Fatal("expected a preview")
	}
	if preview["width"] != float64(16) || preview["height"] != float64(12) {
		t.Errorf("preview size: got %vx%v, want 16x12", preview["width"], preview["height"])
	}

	palette := result["palette"].(map[string]interface{})
	if palette["total_pixels"] != float64(40*30) {
		t.Errorf("palette total_pixels: got %v", palette["total_pixels"])
	}
}

func TestHandleToolsCall_CartoonRender_Params(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 20, 20)

	result, mcpErr := callTool(t, s, "cartoon_render", map[string]interface{}{
		"path":            imgPath,
		"color_levels":    3,
		"blur_level":      6,
		"include_preview": false,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	params := result["params"].(map[string]interface{})
	if params["color_levels"] != float64(3) || params["blur_level"] != float64(6) || params["edge_intensity"] != float64(300) {
		t.Errorf("params: got %v", params)
	}
	if result["kernel_size"] != float64(7) {
		t.Errorf("kernel_size: got %v, want 7", result["kernel_size"])
	}
	if _, ok := result["preview"]; ok {
		t.Error("preview should be omitted when include_preview is false")
	}

	// A later call without a path keeps the source and parameters.
	result, mcpErr = callTool(t, s, "cartoon_render", map[string]interface{}{"include_preview": false})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["source"] != imgPath {
		t.Errorf("source: got %v, want %s", result["source"], imgPath)
	}
	if result["generation"] != float64(2) {
		t.Errorf("generation: got %v, want 2", result["generation"])
	}
}

func TestHandleToolsCall_CartoonRender_InvalidParam(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 10, 10)

	_, mcpErr := callTool(t, s, "cartoon_render", map[string]interface{}{"path": imgPath, "color_levels": 40})
	if mcpErr == nil {
		t.Fatal("expected an error for color_levels 40")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("code: got %d, want -32000", mcpErr.Code)
	}
	if data, _ := mcpErr.Data.(string); !strings.Contains(data, "color_levels") {
		t.Errorf("error data should name the parameter: %v", mcpErr.Data)
	}
}

func TestHandleToolsCall_CartoonRender_Clamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clamp = true
	s := New(cfg)
	imgPath := createTestImageFile(t, 10, 10)

	result, mcpErr := callTool(t, s, "cartoon_render", map[string]interface{}{"path": imgPath, "color_levels": 40, "include_preview": false})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	params := result["params"].(map[string]interface{})
	if params["color_levels"] != float64(20) {
		t.Errorf("color_levels: got %v, want 20", params["color_levels"])
	}
}

func TestExecuteTool_CartoonRender_ExplicitZero(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 10, 10)
	if _, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": imgPath}); mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	tests := []struct {
		args string
		name string
	}{
		{`{"blur_level":0}`, "blur_level"},
		{`{"color_levels":0}`, "color_levels"},
		{`{"edge_intensity":0}`, "edge_intensity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.executeTool(context.Background(), "cartoon_render", json.RawMessage(tt.args))
			var perr *cartoon.InvalidParameterError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *InvalidParameterError, got %v", err)
			}
			if perr.Name != tt.name || perr.Value != 0 {
				t.Errorf("error: got %s=%d, want %s=0", perr.Name, perr.Value, tt.name)
			}
		})
	}

	if s.session.Params() != cartoon.DefaultParams() {
		t.Errorf("rejected values must not change the session: %+v", s.session.Params())
	}
}

func TestHandleToolsCall_CartoonRender_ClampExplicitZero(t *testing.T) {
	cfg, err := ConfigFromEnv(envMap(map[string]string{EnvClamp: "true", EnvSeed: "1"}))
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	s := New(cfg)
	imgPath := createTestImageFile(t, 10, 10)

	result, mcpErr := callTool(t, s, "cartoon_render", map[string]interface{}{
		"path":            imgPath,
		"blur_level":      0,
		"color_levels":    0,
		"edge_intensity":  0,
		"include_preview": false,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	params := result["params"].(map[string]interface{})
	if params["blur_level"] != float64(1) || params["color_levels"] != float64(2) || params["edge_intensity"] != float64(100) {
		t.Errorf("params: got %v, want the minimums", params)
	}
}

func TestHandleToolsCall_CartoonStencil_ExplicitZero(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 10, 10)

	_, err := s.executeTool(context.Background(), "cartoon_stencil", json.RawMessage(`{"path":"`+imgPath+`","blur_level":0}`))
	var perr *cartoon.InvalidParameterError
	if !errors.As(err, &perr) || perr.Name != "blur_level" {
		t.Fatalf("expected blur_level *InvalidParameterError, got %v", err)
	}
}

func TestHandleToolsCall_CartoonRender_NoSource(t *testing.T) {
	s := New(DefaultConfig())
	_, mcpErr := callTool(t, s, "cartoon_render", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", mcpErr)
	}
}

func TestHandleToolsCall_CartoonStencil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EdgeMode = cartoon.EdgeScaled
	s := New(cfg)
	imgPath := createTestImageFile(t, 30, 20)

	result, mcpErr := callTool(t, s, "cartoon_stencil", map[string]interface{}{"path": imgPath, "edge_intensity": 100})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["block_size"] != float64(5) {
		t.Errorf("block_size: got %v, want 5", result["block_size"])
	}
	if result["source"] != imgPath {
		t.Errorf("source: got %v, want %s", result["source"], imgPath)
	}
	if result["edge_mode"] != "scaled" {
		t.Errorf("edge_mode: got %v", result["edge_mode"])
	}
	fraction := result["edge_fraction"].(float64)
	if fraction < 0 || fraction > 1 {
		t.Errorf("edge_fraction out of range: %v", fraction)
	}

	status, _ := callTool(t, s, "cartoon_status", nil)
	if status["has_result"] != false || status["generation"] != float64(0) {
		t.Errorf("stencil must not render: %v", status)
	}
}

func TestHandleToolsCall_CartoonSave(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 16, 16)
	outPath := filepath.Join(t.TempDir(), "cartoon.jpg")

	_, mcpErr := callTool(t, s, "cartoon_save", map[string]interface{}{"output_path": outPath})
	if mcpErr == nil {
		t.Fatal("save before any render should fail")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("failed save must not create a file")
	}

	if _, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": imgPath}); mcpErr != nil {
		t.Fatalf("cartoon_load failed: %+v", mcpErr)
	}
	result, mcpErr := callTool(t, s, "cartoon_save", map[string]interface{}{"output_path": outPath, "jpeg_quality": 70})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}
	if result["format"] != "jpeg" {
		t.Errorf("format: got %v, want jpeg", result["format"])
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestHandleToolsCall_CartoonParameters(t *testing.T) {
	s := New(DefaultConfig())
	result, mcpErr := callTool(t, s, "cartoon_parameters", nil)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %+v", mcpErr)
	}

	colors := result["color_levels"].(map[string]interface{})
	if colors["min"] != float64(2) || colors["max"] != float64(20) || colors["default"] != float64(7) {
		t.Errorf("color_levels range: got %v", colors)
	}
	if result["edge_mode"] != "fixed" {
		t.Errorf("edge_mode: got %v", result["edge_mode"])
	}
}

func TestHandleToolsCall_CartoonStatus(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 8, 6)

	result, _ := callTool(t, s, "cartoon_status", nil)
	if result["has_result"] != false {
		t.Errorf("has_result: got %v, want false", result["has_result"])
	}

	if _, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": imgPath}); mcpErr != nil {
		t.Fatalf("cartoon_load failed: %+v", mcpErr)
	}
	result, _ = callTool(t, s, "cartoon_status", nil)
	if result["has_result"] != true || result["source"] != imgPath {
		t.Errorf("status after load: %v", result)
	}
	last := result["last_render"].(map[string]interface{})
	if last["width"] != float64(8) || last["height"] != float64(6) {
		t.Errorf("last_render size: got %vx%v", last["width"], last["height"])
	}
}

func TestHandleToolsCall_FailedRenderKeepsResult(t *testing.T) {
	s := seededServer()
	imgPath := createTestImageFile(t, 8, 8)

	if _, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": imgPath}); mcpErr != nil {
		t.Fatalf("cartoon_load failed: %+v", mcpErr)
	}
	_, mcpErr := callTool(t, s, "cartoon_load", map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.png")})
	if mcpErr == nil {
		t.Fatal("loading a missing file should fail")
	}

	result, _ := callTool(t, s, "cartoon_status", nil)
	last := result["last_render"].(map[string]interface{})
	if last["source"] != imgPath {
		t.Errorf("last_render source: got %v, want %s", last["source"], imgPath)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(DefaultConfig())
	_, mcpErr := callTool(t, s, "image_crop", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", mcpErr)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(DefaultConfig())
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name": 5}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_BadArguments(t *testing.T) {
	s := New(DefaultConfig())
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"cartoon_render","arguments":{"color_levels":"many"}}`),
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", resp.Error)
	}
}
