package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/mantonx/couchpilot/internal/playback"
)

// SettingsStore is the persisted-preference surface the API exposes.
type SettingsStore interface {
	IntroSkipEnabled() bool
	SetIntroSkipEnabled(enabled bool) error
	PreferredBitrate() int
	SetPreferredBitrate(bps int) error
}

// Server is the local control surface a remote UI talks to.
type Server struct {
	logger   hclog.Logger
	orch     *playback.Orchestrator
	settings SettingsStore
	hub      *Hub
	upgrader websocket.Upgrader
	http     *http.Server
	started  time.Time
}

// NewServer builds the HTTP server on the given listen address.
func NewServer(listen string, logger hclog.Logger, orch *playback.Orchestrator, settings SettingsStore, hub *Hub) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		logger:   logger.Named("api"),
		orch:     orch,
		settings: settings,
		hub:      hub,
		upgrader: websocket.Upgrader{
			// Local control plane; the listener binds loopback by default.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
	s.registerRoutes(router)
	s.http = &http.Server{Addr: listen, Handler: router}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.GET("/diagnostics", s.getDiagnostics)
		api.GET("/events", s.getEvents)

		pb := api.Group("/playback")
		{
			pb.GET("/state", s.getState)
			pb.POST("/play", s.postPlay)
			pb.POST("/stop", s.postStop)
			pb.POST("/seek", s.postSeek)
			pb.POST("/skip", s.postSkip)
			pb.POST("/next", s.postNext)
			pb.POST("/pause", s.postPause)
			pb.POST("/volume", s.postVolume)
			pb.POST("/tracks/audio", s.postAudioTrack)
			pb.POST("/tracks/subtitle", s.postSubtitleTrack)
		}

		api.GET("/settings", s.getSettings)
		api.PUT("/settings", s.putSettings)
	}
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("control API listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) getState(c *gin.Context) {
	resp := gin.H{"state": s.orch.State()}
	if err := s.orch.Err(); err != nil {
		resp["error"] = err.Error()
	}
	if sess, ok := s.orch.Session(); ok {
		resp["session"] = sess
	}
	if stats, ok := s.orch.PlaybackStats(); ok {
		resp["stats"] = stats
	}
	c.JSON(http.StatusOK, resp)
}

type playRequest struct {
	ItemID        string   `json:"item_id" binding:"required"`
	StartSeconds  *float64 `json:"start_seconds"`
	AudioIndex    *int     `json:"audio_index"`
	SubtitleIndex *int     `json:"subtitle_index"`
	Override      string   `json:"override"` // "", "direct", "transcode"
}

func (s *Server) postPlay(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := playback.PlayOptions{
		// Absent start means resume from the saved position.
		StartSeconds: -1,
		Audio:        playback.TrackNone,
		Subtitle:     playback.TrackNone,
	}
	if req.StartSeconds != nil {
		opts.StartSeconds = *req.StartSeconds
	}
	if req.AudioIndex != nil {
		opts.Audio = *req.AudioIndex
	}
	if req.SubtitleIndex != nil {
		opts.Subtitle = *req.SubtitleIndex
	}
	switch req.Override {
	case "":
	case "direct":
		opts.Override = playback.OverrideDirectPlay
	case "transcode":
		opts.Override = playback.OverrideTranscode
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown override: " + req.Override})
		return
	}

	if err := s.orch.Play(c.Request.Context(), req.ItemID, opts); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "starting", "item_id": req.ItemID})
}

func (s *Server) postStop(c *gin.Context) {
	s.orch.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (s *Server) postSeek(c *gin.Context) {
	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.orch.RequestSeek(req.Seconds)
	c.JSON(http.StatusOK, gin.H{"status": "seeking", "target": req.Seconds})
}

func (s *Server) postSkip(c *gin.Context) {
	s.orch.Skip()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) postNext(c *gin.Context) {
	if err := s.orch.PlayNext(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "starting"})
}

func (s *Server) postPause(c *gin.Context) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.orch.SetPaused(req.Paused); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "paused": req.Paused})
}

func (s *Server) postVolume(c *gin.Context) {
	var req struct {
		Level *int  `json:"level"`
		Muted *bool `json:"muted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Level != nil {
		if err := s.orch.SetVolume(*req.Level); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Muted != nil {
		if err := s.orch.SetMuted(*req.Muted); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) postAudioTrack(c *gin.Context) {
	s.switchTrack(c, s.orch.SwitchAudioTrack)
}

func (s *Server) postSubtitleTrack(c *gin.Context) {
	s.switchTrack(c, s.orch.SwitchSubtitleTrack)
}

func (s *Server) switchTrack(c *gin.Context, fn func(int) error) {
	var req struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := fn(*req.Index); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "index": *req.Index})
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"intro_skip_enabled": s.settings.IntroSkipEnabled(),
		"preferred_bitrate":  s.settings.PreferredBitrate(),
	})
}

func (s *Server) putSettings(c *gin.Context) {
	var req struct {
		IntroSkipEnabled *bool `json:"intro_skip_enabled"`
		PreferredBitrate *int  `json:"preferred_bitrate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IntroSkipEnabled != nil {
		if err := s.settings.SetIntroSkipEnabled(*req.IntroSkipEnabled); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if req.PreferredBitrate != nil {
		if err := s.settings.SetPreferredBitrate(*req.PreferredBitrate); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.orch.SetMaxBitrate(*req.PreferredBitrate)
	}
	s.getSettings(c)
}

func (s *Server) getDiagnostics(c *gin.Context) {
	diag := gin.H{
		"uptime": time.Since(s.started).String(),
		"state":  s.orch.State(),
	}

	if stats, ok := s.orch.PlaybackStats(); ok {
		diag["player"] = stats
	}
	if sess, ok := s.orch.Session(); ok {
		diag["session"] = sess
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		diag["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		diag["memory"] = gin.H{
			"total":        vm.Total,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}

	c.JSON(http.StatusOK, diag)
}

func (s *Server) getEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)
}
