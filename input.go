package naive

import (
	"os"

	"github.com/go-gl/glfw/v3.3/glfw"
	"gopkg.in/yaml.v3"
)

type InputBindingsFile struct {
	Actions map[string][]string `yaml:"actions"`
	Axes    map[string]struct {
		Positive string `yaml:"positive"`
		Negative string `yaml:"negative"`
		Mouse    string `yaml:"mouse"`
	} `yaml:"axes"`
}

func LoadInputBindings(path string) (*InputBindingsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f InputBindingsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// InputState polls glfw keyboard/mouse state each frame and also accepts
// injected input from the command socket's inject_input command and the
// headless test runner, via the same underlying mechanism (§4.6).
type InputState struct {
	window   *glfw.Window
	bindings *InputBindingsFile

	pressed      map[string]bool
	justPressed  map[string]bool
	justReleased map[string]bool
	mouseDX      float32
	mouseDY      float32
	lastMouseX   float64
	lastMouseY   float64
	CursorGrabbed bool

	injected map[string]bool
}

func NewInputState(window *glfw.Window, bindings *InputBindingsFile) *InputState {
	return &InputState{
		window:       window,
		bindings:     bindings,
		pressed:      map[string]bool{},
		justPressed:  map[string]bool{},
		justReleased: map[string]bool{},
		injected:     map[string]bool{},
	}
}

// Poll refreshes pressed/just-pressed/just-released state from glfw and
// injected actions, and clears them at step 19 of the frame loop via
// ClearTransient.
func (in *InputState) Poll() {
	for action, keys := range in.bindings.Actions {
		down := in.injected[action]
		if in.window != nil {
			for _, k := range keys {
				if code, ok := keyCodeOf(k); ok && in.window.GetKey(code) == glfw.Press {
					down = true
				}
			}
		}
		was := in.pressed[action]
		in.pressed[action] = down
		if down && !was {
			in.justPressed[action] = true
		}
		if !down && was {
			in.justReleased[action] = true
		}
	}

	if in.window == nil {
		return
	}
	x, y := in.window.GetCursorPos()
	in.mouseDX += float32(x - in.lastMouseX)
	in.mouseDY += float32(y - in.lastMouseY)
	in.lastMouseX, in.lastMouseY = x, y
}

// ClearTransient resets just-pressed/just-released and mouse delta after the
// frame's consumers have read them (§4.5 step 19).
func (in *InputState) ClearTransient() {
	in.justPressed = map[string]bool{}
	in.justReleased = map[string]bool{}
	in.injected = map[string]bool{}
	in.mouseDX, in.mouseDY = 0, 0
}

func (in *InputState) Pressed(action string) bool      { return in.pressed[action] }
func (in *InputState) JustPressed(action string) bool   { return in.justPressed[action] }
func (in *InputState) JustReleased(action string) bool  { return in.justReleased[action] }
func (in *InputState) MouseDelta() (float32, float32)   { return in.mouseDX, in.mouseDY }

func (in *InputState) Axis(name string) float32 {
	axis, ok := in.bindings.Axes[name]
	if !ok {
		return 0
	}
	var v float32
	if in.Pressed(axis.Positive) {
		v += 1
	}
	if in.Pressed(axis.Negative) {
		v -= 1
	}
	return v
}

// Inject implements inject_input: the same mechanism the command socket and
// headless test runner use to drive input without a real window.
func (in *InputState) Inject(key, action string, dx, dy float32) {
	if action != "" {
		in.injected[action] = true
	}
	in.mouseDX += dx
	in.mouseDY += dy
}

func keyCodeOf(name string) (glfw.Key, bool) {
	code, ok := keyNames[name]
	return code, ok
}

var keyNames = map[string]glfw.Key{
	"W": glfw.KeyW, "A": glfw.KeyA, "S": glfw.KeyS, "D": glfw.KeyD,
	"Space": glfw.KeySpace, "LeftShift": glfw.KeyLeftShift, "Escape": glfw.KeyEscape,
	"E": glfw.KeyE, "Q": glfw.KeyQ, "F": glfw.KeyF, "Tab": glfw.KeyTab,
}
