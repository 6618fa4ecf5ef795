package naive

// UiSystem buffers the current frame's immediate-mode UI draw calls issued
// by scripts via the ui namespace. Nothing in the render pipeline reads
// DrawCalls; renderFrame drops them with ClearDraws at the end of each frame.
type UiSystem struct {
	DrawCalls []UiDrawCall
	Flashes   []UiFlash
}

type UiDrawCallKind int

const (
	UiDrawText UiDrawCallKind = iota
	UiDrawRect
)

type UiDrawCall struct {
	Kind  UiDrawCallKind
	X, Y  float32
	W, H  float32
	Text  string
	Color [4]float32
}

type UiFlash struct {
	Color    [4]float32
	Duration float32
	Elapsed  float32
}

func NewUiSystem() *UiSystem { return &UiSystem{} }

func (u *UiSystem) Text(x, y float32, text string) {
	u.DrawCalls = append(u.DrawCalls, UiDrawCall{Kind: UiDrawText, X: x, Y: y, Text: text})
}

func (u *UiSystem) Rect(x, y, w, h float32, color [4]float32) {
	u.DrawCalls = append(u.DrawCalls, UiDrawCall{Kind: UiDrawRect, X: x, Y: y, W: w, H: h, Color: color})
}

func (u *UiSystem) Flash(color [4]float32, duration float32) {
	u.Flashes = append(u.Flashes, UiFlash{Color: color, Duration: duration})
}

// MeasureText approximates glyph advance without a loaded font atlas: a
// fixed-width estimate is good enough for layout scripts to reason about.
func (u *UiSystem) MeasureText(text string) (float32, float32) {
	return float32(len(text)) * 8, 14
}

// AgeFlashes drops expired screen flashes; called from the frame loop's
// particle/audio update step (§4.5 step 14).
func (u *UiSystem) AgeFlashes(dt float32) {
	live := u.Flashes[:0]
	for _, f := range u.Flashes {
		f.Elapsed += dt
		if f.Elapsed < f.Duration {
			live = append(live, f)
		}
	}
	u.Flashes = live
}

// ClearDraws drops this frame's immediate-mode draw calls; renderFrame
// defers it, so it runs after Execute returns.
func (u *UiSystem) ClearDraws() {
	u.DrawCalls = nil
}
