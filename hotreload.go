package naive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

func walkDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

type ReloadKind int

const (
	ReloadShader ReloadKind = iota
	ReloadScene
	ReloadMaterial
	ReloadPipeline
	ReloadSplat
	ReloadScript
	reloadUnknown
)

type ReloadEvent struct {
	Kind ReloadKind
	Path string
}

// Watcher wraps a recursive fsnotify watch over the project root, classifying
// each changed file by extension/path and delivering events non-blockingly
// to the main thread. File-watch events are best-effort: a full channel
// drops the event rather than stalling the producer goroutine (§5).
type Watcher struct {
	fs      *fsnotify.Watcher
	events  chan ReloadEvent
	Log     Logger
}

func NewWatcher(root string, log Logger) (*Watcher, error) {
	if log == nil {
		log = NewNopLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fs: fsw, events: make(chan ReloadEvent, 256), Log: log}

	dirs, err := walkDirs(root)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			w.Log.Warnf("watch %s: %v", d, err)
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			kind, ok := classifyReload(ev.Name)
			if !ok {
				continue
			}
			select {
			case w.events <- ReloadEvent{Kind: kind, Path: ev.Name}:
			default:
				w.Log.Warnf("hot-reload channel full, dropped %s", ev.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.Log.Warnf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) Events() <-chan ReloadEvent { return w.events }

func (w *Watcher) Close() error { return w.fs.Close() }

func classifyReload(path string) (ReloadKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.ToLower(filepath.Base(path))

	switch {
	case ext == ".wgsl" || ext == ".glsl" || ext == ".hlsl":
		return ReloadShader, true
	case ext == ".lua":
		return ReloadScript, true
	case ext == ".ply":
		return ReloadSplat, true
	case strings.Contains(base, "pipeline") && ext == ".yaml":
		return ReloadPipeline, true
	case strings.Contains(base, "material") && ext == ".yaml":
		return ReloadMaterial, true
	case ext == ".yaml" || ext == ".yml":
		return ReloadScene, true
	default:
		return reloadUnknown, false
	}
}

// DedupReloads coalesces duplicate paths queued within one frame, keeping
// the first occurrence's kind.
func DedupReloads(events []ReloadEvent) []ReloadEvent {
	seen := map[string]bool{}
	var out []ReloadEvent
	for _, e := range events {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}

// OrderReloads sorts a deduplicated batch into the application order the
// frame loop requires: shader, material, scene, splat, pipeline, script.
// Materials resolve before scene reconciliation so a scene reload that
// references a hot-reloaded material doesn't race the cache invalidation.
func OrderReloads(events []ReloadEvent) []ReloadEvent {
	rank := map[ReloadKind]int{
		ReloadShader: 0, ReloadMaterial: 1, ReloadScene: 2, ReloadSplat: 3, ReloadPipeline: 4, ReloadScript: 5,
	}
	out := make([]ReloadEvent, len(events))
	copy(out, events)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && rank[out[j-1].Kind] > rank[out[j].Kind]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
