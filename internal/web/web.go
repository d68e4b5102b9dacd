// Package web serves the most recent status report over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/bf4-status/internal/roster"
	"github.com/leighmacdonald/bf4-status/internal/status"
	"github.com/leighmacdonald/bf4-status/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var ErrServe = errors.New("http server error")

type playerView struct {
	Name         string `json:"name"`
	Score        string `json:"score"`
	CheatScore   *int   `json:"cheat_score"`
	Flagged      bool   `json:"flagged"`
	PersonaID    string `json:"persona_id,omitempty"`
	ProfileURL   string `json:"profile_url,omitempty"`
	BattlelogURL string `json:"battlelog_url"`
}

type teamView struct {
	ID      string       `json:"id"`
	Players []playerView `json:"players"`
}

type statusView struct {
	Address             string     `json:"address"`
	Name                string     `json:"name"`
	Map                 string     `json:"map"`
	MapCode             string     `json:"map_code"`
	Mode                string     `json:"mode"`
	ModeCode            string     `json:"mode_code"`
	Players             string     `json:"players"`
	Summary             string     `json:"summary"`
	Region              string     `json:"region,omitempty"`
	EnrichmentAvailable bool       `json:"enrichment_available"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Teams               []teamView `json:"teams"`
	LastError           string     `json:"last_error,omitempty"`
}

func newStatusView(report status.Report) statusView {
	view := statusView{
		Address:             report.Address,
		Name:                report.Server.Name,
		Map:                 report.MapName,
		MapCode:             report.Server.Map,
		Mode:                report.ModeName,
		ModeCode:            report.Server.GameMode,
		Players:             report.PlayerCount,
		Summary:             ui.Summary(report),
		Region:              report.Region,
		EnrichmentAvailable: report.EnrichmentAvailable,
		UpdatedAt:           report.UpdatedAt,
		Teams:               make([]teamView, 0, len(report.Teams)),
	}

	for _, team := range report.Teams {
		tv := teamView{ID: team.ID, Players: make([]playerView, 0, len(team.Players))}
		for _, player := range team.Players {
			tv.Players = append(tv.Players, newPlayerView(player))
		}

		view.Teams = append(view.Teams, tv)
	}

	return view
}

func newPlayerView(player roster.Player) playerView {
	view := playerView{
		Name:         player.Name(),
		Score:        player.Score(),
		Flagged:      player.Flagged(),
		BattlelogURL: status.BattlelogURL(player),
	}

	if player.Result != nil {
		view.CheatScore = player.Result.CheatScore
		view.PersonaID = player.Result.PersonaID
		view.ProfileURL = player.Result.ProfileURL
	}

	return view
}

// Server holds the latest report and exposes it to HTTP clients.
type Server struct {
	listenAddress string
	router        *gin.Engine

	mu        sync.RWMutex
	latest    *status.Report
	lastError error
}

func NewServer(listenAddress string, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{listenAddress: listenAddress}
	server.router = server.buildRouter()

	return server
}

// Update replaces the served report and clears any previous error.
func (s *Server) Update(report status.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &report
	s.lastError = nil
}

// Failed records a failed collection. The previous report, if any, continues to be served.
func (s *Server) Failed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
}

func (s *Server) current() (*status.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.lastError
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.listenAddress,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown http server", slog.String("error", err.Error()))
		}
	}()

	slog.Info("HTTP server starting", slog.String("addr", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(err, ErrServe)
	}

	return nil
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
		api.GET("/status", s.handleStatus)
	}

	router.GET("/", s.handlePlain)

	return router
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	report, lastError := s.current()
	if report == nil {
		body := gin.H{"error": "no status collected yet"}
		if lastError != nil {
			body["last_error"] = lastError.Error()
		}

		c.JSON(http.StatusServiceUnavailable, body)

		return
	}

	view := newStatusView(*report)
	if lastError != nil {
		view.LastError = lastError.Error()
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) handlePlain(c *gin.Context) {
	report, _ := s.current()
	if report == nil {
		c.String(http.StatusServiceUnavailable, "no status collected yet\n")

		return
	}

	c.String(http.StatusOK, ui.Plain(*report))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		slog.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()))
	}
}
