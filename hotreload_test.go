package naive

import "testing"

func TestClassifyReload(t *testing.T) {
	cases := []struct {
		path string
		kind ReloadKind
		ok   bool
	}{
		{"assets/shaders/lit.wgsl", ReloadShader, true},
		{"assets/shaders/lit.glsl", ReloadShader, true},
		{"assets/shaders/lit.hlsl", ReloadShader, true},
		{"scripts/enemy.lua", ReloadScript, true},
		{"assets/splats/garden.ply", ReloadSplat, true},
		{"pipelines/forward_pipeline.yaml", ReloadPipeline, true},
		{"materials/rusty_material.yaml", ReloadMaterial, true},
		{"scenes/level1.yaml", ReloadScene, true},
		{"scenes/level1.yml", ReloadScene, true},
		{"README.md", reloadUnknown, false},
	}

	for _, c := range cases {
		kind, ok := classifyReload(c.path)
		if ok != c.ok {
			t.Errorf("classifyReload(%q) ok = %v, want %v", c.path, ok, c.ok)
			continue
		}
		if ok && kind != c.kind {
			t.Errorf("classifyReload(%q) kind = %v, want %v", c.path, kind, c.kind)
		}
	}
}

func TestDedupReloads(t *testing.T) {
	in := []ReloadEvent{
		{Kind: ReloadScene, Path: "a.yaml"},
		{Kind: ReloadScene, Path: "b.yaml"},
		{Kind: ReloadScript, Path: "a.yaml"},
	}

	out := DedupReloads(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped events, got %d", len(out))
	}
	if out[0].Path != "a.yaml" || out[0].Kind != ReloadScene {
		t.Errorf("expected first occurrence's kind kept for a.yaml, got %+v", out[0])
	}
}

func TestOrderReloads(t *testing.T) {
	in := []ReloadEvent{
		{Kind: ReloadScript, Path: "s.lua"},
		{Kind: ReloadScene, Path: "scene.yaml"},
		{Kind: ReloadPipeline, Path: "pipeline.yaml"},
		{Kind: ReloadSplat, Path: "cloud.ply"},
		{Kind: ReloadMaterial, Path: "material.yaml"},
		{Kind: ReloadShader, Path: "lit.wgsl"},
	}

	out := OrderReloads(in)

	want := []ReloadKind{ReloadShader, ReloadMaterial, ReloadScene, ReloadSplat, ReloadPipeline, ReloadScript}
	if len(out) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(out))
	}
	for i, k := range want {
		if out[i].Kind != k {
			t.Errorf("position %d: got kind %v, want %v", i, out[i].Kind, k)
		}
	}
}

func TestOrderReloads_MaterialBeforeScene(t *testing.T) {
	in := []ReloadEvent{
		{Kind: ReloadScene, Path: "scene.yaml"},
		{Kind: ReloadMaterial, Path: "rusty_material.yaml"},
	}

	out := OrderReloads(in)
	if out[0].Kind != ReloadMaterial || out[1].Kind != ReloadScene {
		t.Errorf("expected material to sort before scene, got %+v", out)
	}
}
