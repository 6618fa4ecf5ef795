// Package render compiles a data-driven YAML pipeline description into a
// directed acyclic graph of GPU passes and executes it every frame.
package render

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type PassType string

const (
	PassRasterize PassType = "rasterize"
	PassSplat     PassType = "splat"
	PassFullscreen PassType = "fullscreen"
	PassShadow    PassType = "shadow"
	PassCompute   PassType = "compute"
)

type PipelineDef struct {
	Settings struct {
		Resolution [2]int `yaml:"resolution"`
		Vsync      bool   `yaml:"vsync"`
		Hdr        bool   `yaml:"hdr"`
	} `yaml:"settings"`
	Resources []ResourceDef `yaml:"resources"`
	Passes    []PassDef     `yaml:"passes"`
}

type ResourceDef struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Size   string `yaml:"size"` // "viewport", "viewport/N", or "WxH"
}

type PassDef struct {
	Name    string            `yaml:"name"`
	Type    PassType          `yaml:"type"`
	Shader  string            `yaml:"shader"`
	Inputs  map[string]string `yaml:"inputs"`
	Outputs map[string]string `yaml:"outputs"`
}

func LoadPipelineDef(path string) (*PipelineDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def PipelineDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ColorTargets returns a pass's output slots (excluding "depth"), ordered by
// the fixed slot priority so fragment-shader @location indices are stable
// regardless of YAML map iteration order.
func (p PassDef) ColorTargets() []string {
	var slots []string
	for slot := range p.Outputs {
		if slot == "depth" {
			continue
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slotPriority(slots[i]) < slotPriority(slots[j])
	})
	return slots
}

func slotPriority(slot string) int {
	switch {
	case strings.Contains(slot, "color") || strings.Contains(slot, "albedo"):
		return 0
	case strings.Contains(slot, "normal"):
		return 1
	case strings.Contains(slot, "emission"):
		return 2
	default:
		return 3
	}
}

func (p PassDef) DepthTarget() (string, bool) {
	name, ok := p.Outputs["depth"]
	return name, ok
}

// builtinShaderFor resolves the §4.2.3 fallback built-in source keyed by a
// substring of the pass name, used when the declared shader path can't be
// cross-compiled.
func builtinShaderFor(passName string) (string, bool) {
	for _, key := range []string{"gbuffer", "light", "bloom", "tonemap", "fxaa", "shadow", "splat"} {
		if strings.Contains(passName, key) {
			return builtinWgsl[key], true
		}
	}
	return "", false
}

var builtinWgsl = map[string]string{
	"gbuffer": builtinGbufferWgsl,
	"light":   builtinLightWgsl,
	"bloom":   builtinBloomWgsl,
	"tonemap": builtinTonemapWgsl,
	"fxaa":    builtinFxaaWgsl,
	"shadow":  builtinShadowWgsl,
	"splat":   builtinSplatWgsl,
}

func validatePassType(t PassType) error {
	switch t {
	case PassRasterize, PassSplat, PassFullscreen, PassShadow, PassCompute:
		return nil
	default:
		return fmt.Errorf("unknown pass type %q", t)
	}
}
