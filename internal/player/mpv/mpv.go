// Package mpv implements the rendering adapter on top of an mpv process
// driven over its JSON IPC socket. Two variants exist: the native variant
// uses platform hardware decoding, the basic variant forces software decode.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/player"
)

// Config controls how mpv processes are spawned.
type Config struct {
	BinaryPath string
	SocketDir  string
	ExtraArgs  []string
}

// NewFactory returns a player.Factory producing mpv adapters. PreferNative
// selects hardware decoding; PreferBasicPlayer forces software decode.
func NewFactory(cfg Config, logger hclog.Logger) player.Factory {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "mpv"
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = os.TempDir()
	}
	return player.FactoryFunc(func(hints player.Hints) (player.Adapter, error) {
		variant := "native"
		hwdec := "auto-safe"
		if hints.PreferBasicPlayer && !hints.PreferNative {
			variant = "basic"
			hwdec = "no"
		}
		return newAdapter(cfg, variant, hwdec, logger)
	})
}

type adapter struct {
	mu        sync.Mutex
	logger    hclog.Logger
	cfg       Config
	variant   string
	hwdec     string
	cmd       *exec.Cmd
	conn      net.Conn
	enc       *json.Encoder
	listener  player.Listener
	requestID int

	stats      player.Stats
	destroyed  bool
	loadedOnce bool
}

func newAdapter(cfg Config, variant, hwdec string, logger hclog.Logger) (*adapter, error) {
	a := &adapter{
		logger:  logger.Named("mpv").With("variant", variant),
		cfg:     cfg,
		variant: variant,
		hwdec:   hwdec,
		stats:   player.Stats{Volume: 100, VideoTracks: -1, AudioTracks: -1, Variant: variant},
	}
	if err := a.spawn(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *adapter) spawn() error {
	socket := filepath.Join(a.cfg.SocketDir, "couchpilot-mpv-"+uuid.New().String()[:8]+".sock")

	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--force-window=yes",
		"--keep-open=no",
		"--hwdec=" + a.hwdec,
		"--input-ipc-server=" + socket,
	}
	args = append(args, a.cfg.ExtraArgs...)

	cmd := exec.Command(a.cfg.BinaryPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	a.cmd = cmd

	conn, err := waitForSocket(socket, 5*time.Second)
	if err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("connect mpv ipc: %w", err)
	}
	a.conn = conn
	a.enc = json.NewEncoder(conn)

	for i, prop := range []string{"time-pos", "duration", "pause", "mute", "volume", "paused-for-cache", "track-list/count"} {
		if err := a.command("observe_property", i+1, prop); err != nil {
			a.logger.Warn("observe property failed", "property", prop, "error", err)
		}
	}

	go a.readLoop(bufio.NewReader(conn))
	return nil
}

func waitForSocket(path string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (a *adapter) Load(ctx context.Context, req player.LoadRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("adapter destroyed")
	}

	a.loadedOnce = false
	return a.command("loadfile", req.URL, "replace", loadfileOpts(req))
}

// loadfileOpts builds the per-file option string for a loadfile command.
// mpv track ids are 1-based; a negative subtitle index disables subtitles.
func loadfileOpts(req player.LoadRequest) string {
	opts := "force-media-title=" + quoteOpt(req.Title)
	if req.StartSeconds > 0 {
		opts += ",start=" + strconv.FormatFloat(req.StartSeconds, 'f', 3, 64)
	}
	if req.AudioIndex >= 0 {
		opts += ",aid=" + strconv.Itoa(req.AudioIndex+1)
	}
	if req.SubtitleIndex >= 0 {
		opts += ",sid=" + strconv.Itoa(req.SubtitleIndex+1)
	} else {
		opts += ",sid=no"
	}
	return opts
}

func (a *adapter) Seek(seconds float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.command("seek", seconds, "absolute")
}

func (a *adapter) SetPaused(paused bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.command("set_property", "pause", paused)
}

func (a *adapter) SetMuted(muted bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.command("set_property", "mute", muted)
}

func (a *adapter) SetVolume(level int) error {
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.command("set_property", "volume", level)
}

func (a *adapter) SelectAudioTrack(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	// mpv track ids are 1-based.
	return a.command("set_property", "aid", index+1)
}

func (a *adapter) SelectSubtitleTrack(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 {
		return a.command("set_property", "sid", "no")
	}
	return a.command("set_property", "sid", index+1)
}

func (a *adapter) SupportsLiveTrackSwitch() bool {
	// mpv switches embedded tracks in-place for direct streams.
	return true
}

func (a *adapter) Stats() player.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *adapter) SetListener(l player.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *adapter) Destroy() error {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return nil
	}
	a.destroyed = true
	a.listener = nil
	_ = a.command("quit")
	conn := a.conn
	cmd := a.cmd
	a.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if cmd != nil && cmd.Process != nil {
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			_ = cmd.Process.Kill()
		}
	}
	return nil
}

// command sends one IPC command. Callers hold a.mu.
func (a *adapter) command(args ...interface{}) error {
	if a.enc == nil {
		return fmt.Errorf("ipc not connected")
	}
	a.requestID++
	return a.enc.Encode(map[string]interface{}{
		"command":    args,
		"request_id": a.requestID,
	})
}

type ipcMessage struct {
	Event  string      `json:"event"`
	Name   string      `json:"name"`
	Data   interface{} `json:"data"`
	Reason string      `json:"reason"`
}

func (a *adapter) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			a.mu.Lock()
			destroyed := a.destroyed
			a.mu.Unlock()
			if !destroyed {
				a.emit(player.Event{Type: player.EventError, Err: fmt.Errorf("mpv ipc closed: %w", err)})
			}
			return
		}
		var msg ipcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		a.handle(msg)
	}
}

func (a *adapter) handle(msg ipcMessage) {
	switch msg.Event {
	case "file-loaded":
		a.mu.Lock()
		a.loadedOnce = true
		a.stats.Failed = false
		a.mu.Unlock()
		a.emit(player.Event{Type: player.EventLoaded})
	case "playback-restart":
		a.emit(player.Event{Type: player.EventPlaying})
	case "end-file":
		if msg.Reason == "error" {
			a.mu.Lock()
			a.stats.Failed = true
			a.mu.Unlock()
			a.emit(player.Event{Type: player.EventError, Err: fmt.Errorf("mpv end-file: %s", msg.Reason)})
			return
		}
		if msg.Reason == "eof" {
			a.emit(player.Event{Type: player.EventEnded})
		}
	case "property-change":
		a.handleProperty(msg)
	}
}

func (a *adapter) handleProperty(msg ipcMessage) {
	switch msg.Name {
	case "time-pos":
		pos, ok := msg.Data.(float64)
		if !ok {
			return
		}
		a.mu.Lock()
		a.stats.Position = pos
		loaded := a.loadedOnce
		a.mu.Unlock()
		if loaded {
			a.emit(player.Event{Type: player.EventTimeUpdate, Position: pos})
		} else {
			a.emit(player.Event{Type: player.EventProgress, Position: pos})
		}
	case "duration":
		if d, ok := msg.Data.(float64); ok {
			a.mu.Lock()
			a.stats.Duration = d
			a.mu.Unlock()
		}
	case "pause":
		if p, ok := msg.Data.(bool); ok {
			a.mu.Lock()
			a.stats.Paused = p
			a.mu.Unlock()
		}
	case "mute":
		if m, ok := msg.Data.(bool); ok {
			a.mu.Lock()
			a.stats.Muted = m
			a.mu.Unlock()
		}
	case "volume":
		if v, ok := msg.Data.(float64); ok {
			a.mu.Lock()
			a.stats.Volume = int(v)
			a.mu.Unlock()
		}
	case "paused-for-cache":
		if b, ok := msg.Data.(bool); ok && b {
			a.emit(player.Event{Type: player.EventBuffering})
		}
	case "track-list/count":
		if n, ok := msg.Data.(float64); ok {
			a.mu.Lock()
			// mpv does not split the count by type; expose the total on both
			// so the health check can at least detect a zero-track stream.
			if int(n) > 0 {
				a.stats.VideoTracks = int(n)
				a.stats.AudioTracks = int(n)
			} else {
				a.stats.VideoTracks = 0
				a.stats.AudioTracks = 0
			}
			a.mu.Unlock()
		}
	}
}

func (a *adapter) emit(ev player.Event) {
	a.mu.Lock()
	l := a.listener
	a.mu.Unlock()
	if l != nil {
		l(ev)
	}
}

func quoteOpt(s string) string {
	// mpv option values with commas need %len% quoting; titles rarely do,
	// so strip commas instead of implementing the full syntax.
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ',' {
			out = append(out, r)
		}
	}
	return string(out)
}
