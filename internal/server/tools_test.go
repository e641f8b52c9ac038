package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_info",
		"cartoon_load",
		"cartoon_render",
		"cartoon_stencil",
		"cartoon_save",
		"cartoon_parameters",
		"cartoon_status",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required argument must be declared.
			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required argument %s has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_ParameterRanges(t *testing.T) {
	var render Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "cartoon_render" {
			render = tool
		}
	}
	props := render.InputSchema["properties"].(map[string]interface{})

	ranges := map[string][2]int{
		"edge_intensity": {100, 500},
		"color_levels":   {2, 20},
		"blur_level":     {1, 15},
	}
	for name, want := range ranges {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			t.Errorf("%s: property missing", name)
			continue
		}
		if prop["minimum"] != want[0] || prop["maximum"] != want[1] {
			t.Errorf("%s: range got [%v, %v], want %v", name, prop["minimum"], prop["maximum"], want)
		}
	}

	if _, ok := render.InputSchema["required"]; ok {
		t.Error("cartoon_render should have no required arguments")
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(DefaultConfig())
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if _, ok := result["tools"].([]Tool); !ok {
		t.Fatal("tools should be a slice of Tool")
	}
}
