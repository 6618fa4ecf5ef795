package naive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"
)

const DefaultSocketPath = "/tmp/naive-runtime.sock"

const commandReplyTimeout = 5 * time.Second

// CommandRequest is one line-delimited JSON command read off the socket.
type CommandRequest struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// CommandResponse is the shaped reply every command produces.
type CommandResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type pendingCommand struct {
	req   CommandRequest
	reply chan CommandResponse
}

// CommandSocket accepts one JSON command per line over a Unix domain
// socket. A background accepter and per-connection readers forward each
// request to the main thread via a bounded channel and await a reply over a
// one-shot channel with a 5-second timeout (§4.6).
type CommandSocket struct {
	listener net.Listener
	inbox    chan pendingCommand
	Log      Logger
}

func NewCommandSocket(path string, log Logger) (*CommandSocket, error) {
	if log == nil {
		log = NewNopLogger()
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	cs := &CommandSocket{listener: ln, inbox: make(chan pendingCommand, 64), Log: log}
	go cs.accept()
	return cs, nil
}

func (cs *CommandSocket) accept() {
	for {
		conn, err := cs.listener.Accept()
		if err != nil {
			return
		}
		go cs.serve(conn)
	}
}

func (cs *CommandSocket) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		var req CommandRequest
		if err := json.Unmarshal(line, &req); err != nil {
			writeResponse(conn, CommandResponse{Status: "error", Message: "invalid json"})
			continue
		}

		reply := make(chan CommandResponse, 1)
		select {
		case cs.inbox <- pendingCommand{req: req, reply: reply}:
		default:
			writeResponse(conn, CommandResponse{Status: "error", Message: "server busy"})
			continue
		}

		select {
		case resp := <-reply:
			writeResponse(conn, resp)
		case <-time.After(commandReplyTimeout):
			writeResponse(conn, CommandResponse{Status: "error", Message: "timeout"})
		}
	}
}

func writeResponse(conn net.Conn, resp CommandResponse) {
	enc, err := json.Marshal(resp)
	if err != nil {
		return
	}
	enc = append(enc, '\n')
	_, _ = conn.Write(enc)
}

// Drain returns every command queued since the last call, non-blocking.
// Called at step 1 of the frame loop.
func (cs *CommandSocket) Drain() []pendingCommand {
	var out []pendingCommand
	for {
		select {
		case p := <-cs.inbox:
			out = append(out, p)
		default:
			return out
		}
	}
}

func (cs *CommandSocket) Close() error { return cs.listener.Close() }

// DispatchCommands handles each queued command against the engine and
// replies. Unknown commands or missing args reply {status: error} without
// crashing the connection handler (§7).
func (e *Engine) DispatchCommands() {
	for _, p := range e.Commands.Drain() {
		p.reply <- e.handleCommand(p.req)
	}
}

func (e *Engine) handleCommand(req CommandRequest) CommandResponse {
	switch req.Command {
	case "list_entities":
		return e.cmdListEntities()
	case "query_entity":
		return e.cmdQueryEntity(req.Args)
	case "modify_entity":
		return e.cmdModifyEntity(req.Args)
	case "spawn_entity":
		return e.cmdSpawnEntity(req.Args)
	case "destroy_entity":
		return e.cmdDestroyEntity(req.Args)
	case "emit_event":
		return e.cmdEmitEvent(req.Args)
	case "query_events":
		return e.cmdQueryEvents(req.Args)
	case "inject_input":
		return e.cmdInjectInput(req.Args)
	case "runtime_control":
		return e.cmdRuntimeControl(req.Args)
	default:
		return CommandResponse{Status: "error", Message: "unknown command"}
	}
}

func (e *Engine) cmdListEntities() CommandResponse {
	ids := make([]string, 0)
	for id := range e.World.registry {
		ids = append(ids, id)
	}
	return CommandResponse{Status: "ok", Data: ids}
}

func (e *Engine) cmdQueryEntity(args json.RawMessage) CommandResponse {
	var in struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Id == "" {
		return CommandResponse{Status: "error", Message: "missing id"}
	}
	id, ok := e.World.Lookup(in.Id)
	if !ok {
		return CommandResponse{Status: "error", Message: "entity not found"}
	}
	comps := e.World.Ecs.AllComponents(id)
	return CommandResponse{Status: "ok", Data: comps}
}

func (e *Engine) cmdModifyEntity(args json.RawMessage) CommandResponse {
	var in struct {
		Id        string     `json:"id"`
		Position  *[3]float32 `json:"position,omitempty"`
		Intensity *float32    `json:"intensity,omitempty"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Id == "" {
		return CommandResponse{Status: "error", Message: "missing id"}
	}
	id, ok := e.World.Lookup(in.Id)
	if !ok {
		return CommandResponse{Status: "error", Message: "entity not found"}
	}
	if in.Position != nil {
		if t := GetComponent[Transform](e.World.Ecs, id); t != nil {
			t.Position = vec3FromSlice(in.Position[:], t.Position)
			t.Dirty = true
		}
	}
	if in.Intensity != nil {
		if pl := GetComponent[PointLight](e.World.Ecs, id); pl != nil {
			pl.Intensity = *in.Intensity
		}
	}
	return CommandResponse{Status: "ok"}
}

func (e *Engine) cmdSpawnEntity(args json.RawMessage) CommandResponse {
	var def EntityDef
	if err := json.Unmarshal(args, &def); err != nil || def.Id == "" {
		return CommandResponse{Status: "error", Message: "invalid entity definition"}
	}
	id := e.World.spawnEntityDef(def, false)
	return CommandResponse{Status: "ok", Data: uint64(id)}
}

func (e *Engine) cmdDestroyEntity(args json.RawMessage) CommandResponse {
	var in struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Id == "" {
		return CommandResponse{Status: "error", Message: "missing id"}
	}
	id, ok := e.World.Lookup(in.Id)
	if !ok {
		return CommandResponse{Status: "error", Message: "entity not found"}
	}
	e.Scripts.Unload(toScriptId(id))
	e.World.DestroyEntity(id)
	return CommandResponse{Status: "ok"}
}

func (e *Engine) cmdEmitEvent(args json.RawMessage) CommandResponse {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Name == "" {
		return CommandResponse{Status: "error", Message: "missing name"}
	}
	e.Events.Emit(in.Name, nil)
	return CommandResponse{Status: "ok"}
}

func (e *Engine) cmdQueryEvents(args json.RawMessage) CommandResponse {
	var in struct {
		Filter string `json:"filter"`
		Limit  int    `json:"limit"`
	}
	_ = json.Unmarshal(args, &in)
	return CommandResponse{Status: "ok", Data: e.Events.Query(in.Filter, in.Limit)}
}

func (e *Engine) cmdInjectInput(args json.RawMessage) CommandResponse {
	var in struct {
		Key    string  `json:"key"`
		Action string  `json:"action"`
		DX     float32 `json:"dx"`
		DY     float32 `json:"dy"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return CommandResponse{Status: "error", Message: "invalid args"}
	}
	e.Input.Inject(in.Key, in.Action, in.DX, in.DY)
	return CommandResponse{Status: "ok"}
}

func (e *Engine) cmdRuntimeControl(args json.RawMessage) CommandResponse {
	var in struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return CommandResponse{Status: "error", Message: "invalid args"}
	}
	switch in.Action {
	case "pause":
		e.Paused = true
	case "resume":
		e.Paused = false
	case "status":
		return CommandResponse{Status: "ok", Data: map[string]any{"paused": e.Paused, "frame": e.Time.FrameCount}}
	default:
		return CommandResponse{Status: "error", Message: "unknown action"}
	}
	return CommandResponse{Status: "ok"}
}
