package render

import "testing"

func TestBuildExecutionOrderRespectsProducerConsumerEdges(t *testing.T) {
	passes := []PassDef{
		{Name: "light", Type: PassFullscreen, Inputs: map[string]string{"scene": "gbuffer_color"}, Outputs: map[string]string{"color": "lit"}},
		{Name: "gbuffer", Type: PassRasterize, Inputs: map[string]string{"draws": "auto"}, Outputs: map[string]string{"color": "gbuffer_color"}},
		{Name: "tonemap", Type: PassFullscreen, Inputs: map[string]string{"scene": "lit"}, Outputs: map[string]string{"color": "swapchain"}},
	}

	order, err := BuildExecutionOrder(passes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 passes in output, got %d", len(order))
	}

	pos := map[string]int{}
	for i, p := range order {
		pos[p.Name] = i
	}
	if pos["gbuffer"] >= pos["light"] {
		t.Errorf("expected gbuffer before light, got order %v", order)
	}
	if pos["light"] >= pos["tonemap"] {
		t.Errorf("expected light before tonemap, got order %v", order)
	}
}

func TestBuildExecutionOrderDetectsCycle(t *testing.T) {
	passes := []PassDef{
		{Name: "a", Type: PassFullscreen, Inputs: map[string]string{"in": "b_out"}, Outputs: map[string]string{"color": "a_out"}},
		{Name: "b", Type: PassFullscreen, Inputs: map[string]string{"in": "a_out"}, Outputs: map[string]string{"color": "b_out"}},
	}

	_, err := BuildExecutionOrder(passes)
	if err == nil {
		t.Fatal("expected cycle detection to return an error")
	}
}

func TestBuildExecutionOrderIgnoresAutoInputs(t *testing.T) {
	passes := []PassDef{
		{Name: "gbuffer", Type: PassRasterize, Inputs: map[string]string{"draws": "auto"}, Outputs: map[string]string{"color": "swapchain"}},
	}

	order, err := BuildExecutionOrder(passes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 1 || order[0].Name != "gbuffer" {
		t.Fatalf("expected single unblocked pass, got %v", order)
	}
}

func TestBuildExecutionOrderIndependentPassesBothAppear(t *testing.T) {
	passes := []PassDef{
		{Name: "shadow", Type: PassShadow, Outputs: map[string]string{"depth": "shadow_map"}},
		{Name: "gbuffer", Type: PassRasterize, Outputs: map[string]string{"color": "swapchain"}},
	}

	order, err := BuildExecutionOrder(passes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected both independent passes preserved, got %d", len(order))
	}
}
