// Command naive boots the runtime against a project directory: it opens a
// window, compiles the render pipeline, loads the starting scene, opens the
// command socket and file watcher, and drives the frame loop until the
// window closes.
package main

import (
	"flag"
	"path/filepath"

	"github.com/go-gl/glfw/v3.3/glfw"

	naive "github.com/naive-engine/naive"
	"github.com/naive-engine/naive/render"
)

func main() {
	projectRoot := flag.String("project", ".", "project root directory")
	scene := flag.String("scene", "scenes/main.yaml", "initial scene path, relative to -project")
	pipeline := flag.String("pipeline", "pipelines/main.yaml", "render pipeline definition, relative to -project")
	bindings := flag.String("bindings", "input.yaml", "input bindings file, relative to -project")
	socket := flag.String("socket", naive.DefaultSocketPath, "command socket path")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := naive.NewDefaultLogger("naive", *debug)

	if err := glfw.Init(); err != nil {
		log.Errorf("glfw init: %v", err)
		return
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(*width, *height, "naive", nil, nil)
	if err != nil {
		log.Errorf("create window: %v", err)
		return
	}

	gpu, err := render.NewGpuState(window, *width, *height)
	if err != nil {
		log.Errorf("gpu init: %v", err)
		return
	}

	assets := naive.NewAssetServer()
	engine := naive.NewEngine(*projectRoot, assets, log)
	engine.Window = window
	engine.Gpu = gpu

	pipelinePath := filepath.Join(*projectRoot, *pipeline)
	def, err := render.LoadPipelineDef(pipelinePath)
	if err != nil {
		log.Errorf("load pipeline %s: %v", pipelinePath, err)
		return
	}
	compiled, err := render.Compile(gpu, def)
	if err != nil {
		log.Errorf("compile pipeline: %v", err)
		return
	}
	engine.Pipeline = compiled
	engine.PipelinePath = pipelinePath

	bindingsPath := filepath.Join(*projectRoot, *bindings)
	bindingsFile, err := naive.LoadInputBindings(bindingsPath)
	if err != nil {
		log.Warnf("load input bindings %s: %v", bindingsPath, err)
		bindingsFile = &naive.InputBindingsFile{}
	}
	engine.Input = naive.NewInputState(window, bindingsFile)

	watcher, err := naive.NewWatcher(*projectRoot, log)
	if err != nil {
		log.Warnf("file watcher unavailable: %v", err)
	} else {
		engine.Watcher = watcher
		defer watcher.Close()
	}

	commands, err := naive.NewCommandSocket(*socket, log)
	if err != nil {
		log.Warnf("command socket unavailable: %v", err)
	} else {
		engine.Commands = commands
		defer commands.Close()
	}

	scenePath := filepath.Join(*projectRoot, *scene)
	if err := engine.LoadScene(scenePath); err != nil {
		log.Errorf("load scene %s: %v", scenePath, err)
		return
	}

	for !window.ShouldClose() {
		glfw.PollEvents()
		engine.Tick()

		w, h := window.GetSize()
		if w != gpu.Width || h != gpu.Height {
			gpu.Resize(w, h)
			if engine.Pipeline != nil {
				if err := engine.Pipeline.Resize(w, h); err != nil {
					log.Warnf("resize pipeline: %v", err)
				}
			}
		}
	}
}
