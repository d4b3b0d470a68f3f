// Package api provides the REST API server for fretpad
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/fretpad/pkg/fretboard"
	"github.com/james-see/fretpad/pkg/notepad"
)

// @title Fretpad API
// @version 1.0
// @description Play and configure a board of note pads over HTTP
// @host localhost:8080
// @BasePath /api/v1

const (
	recentCapacity = 100
	defaultRecent  = 20
)

// Server serves a fretboard over HTTP
type Server struct {
	board  *fretboard.Board
	broker *Broker
	engine *gin.Engine
	detach []func()
	log    *slog.Logger
}

// New creates a Server for board and subscribes its event stream to it
func New(board *fretboard.Board, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		board:  board,
		broker: NewBroker(recentCapacity, logger),
		log:    logger,
	}
	s.detach = []func(){
		board.Listen(notepad.NoteOn, s.broker.OnEvent),
		board.Listen(notepad.NoteOff, s.broker.OnEvent),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/pads", s.listPads)
		v1.GET("/pads/:id", s.getPad)
		v1.PATCH("/pads/:id", s.patchPad)
		v1.POST("/pads/:id/pointer", s.padPointer)
		v1.POST("/pointer", s.boardPointer)
		v1.GET("/events", s.streamEvents)
		v1.GET("/events/recent", s.recentEvents)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Handler returns the server's http.Handler with CORS applied
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.engine)
}

// Broker returns the server's event broker
func (s *Server) Broker() *Broker {
	return s.broker
}

// Run serves on port until ctx is done, then closes event streams and shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.Info("api: listening", "addr", srv.Addr)

	select {
	case err := <-errc:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close ends event streams and detaches from the board
func (s *Server) Close() {
	s.broker.Close()
	for _, fn := range s.detach {
		fn()
	}
	s.detach = nil
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fretpad",
	})
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, fretboard.ErrUnknownPad) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// listPads godoc
// @Summary List pads
// @Description Returns every pad with its configuration, state and view
// @Tags pads
// @Produce json
// @Success 200 {object} map[string][]fretboard.PadState
// @Router /api/v1/pads [get]
func (s *Server) listPads(c *gin.Context) {
	courses := s.board.Courses()
	cw, ch := s.board.CellSize()
	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"frets":   s.board.Frets(),
		"cell":    gin.H{"width": cw, "height": ch},
		"pads":    s.board.Snapshot(),
	})
}

// getPad godoc
// @Summary Get a pad
// @Tags pads
// @Produce json
// @Param id path string true "Pad id, e.g. c1f3"
// @Success 200 {object} fretboard.PadState
// @Failure 404 {object} map[string]string
// @Router /api/v1/pads/{id} [get]
func (s *Server) getPad(c *gin.Context) {
	st, err := s.board.State(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// patchPad godoc
// @Summary Configure a pad
// @Description Changes only the fields present in the body
// @Tags pads
// @Accept json
// @Produce json
// @Param id path string true "Pad id"
// @Param patch body fretboard.Patch true "Fields to change"
// @Success 200 {object} fretboard.PadState
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/pads/{id} [patch]
func (s *Server) patchPad(c *gin.Context) {
	var patch fretboard.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, fmt.Errorf("invalid patch: %w", err))
		return
	}
	id := c.Param("id")
	if err := s.board.Apply(id, patch); err != nil {
		abortWithError(c, err)
		return
	}
	st, err := s.board.State(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type padPointerRequest struct {
	Kind        string `json:"kind" binding:"required"`
	PointerType string `json:"pointerType"`
	PointerID   int    `json:"pointerId"`
	Buttons     uint8  `json:"buttons"`
}

func pointerType(s string) (notepad.PointerType, error) {
	if s == "" {
		return notepad.PointerMouse, nil
	}
	return notepad.ParsePointerType(s)
}

// padPointer godoc
// @Summary Send a pointer event to a pad
// @Description Delivers down/over/up/leave straight to one pad and returns the note events it emitted
// @Tags play
// @Accept json
// @Produce json
// @Param id path string true "Pad id"
// @Param event body padPointerRequest true "Pointer event"
// @Success 200 {object} map[string][]NoteJSON
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/pads/{id}/pointer [post]
func (s *Server) padPointer(c *gin.Context) {
	var req padPointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("invalid pointer event: %w", err))
		return
	}
	kind, err := notepad.ParsePointerKind(req.Kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	pt, err := pointerType(req.PointerType)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// no capture here: a remote client holds its own pointer state
	evs, err := s.board.HandlePointer(c.Param("id"), notepad.PointerEvent{
		Kind:    kind,
		Type:    pt,
		ID:      req.PointerID,
		Buttons: req.Buttons,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": notesJSON(evs)})
}

type boardPointerRequest struct {
	Action      string  `json:"action" binding:"required"`
	PointerType string  `json:"pointerType"`
	PointerID   int     `json:"pointerId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Buttons     uint8   `json:"buttons"`
}

// boardPointer godoc
// @Summary Send a board-level pointer sample
// @Description Routes a pointer position in board coordinates to the pads under it and returns the note events emitted
// @Tags play
// @Accept json
// @Produce json
// @Param input body boardPointerRequest true "Pointer sample"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/pointer [post]
func (s *Server) boardPointer(c *gin.Context) {
	var req boardPointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("invalid pointer input: %w", err))
		return
	}
	action, err := fretboard.ParseAction(req.Action)
	if err != nil {
		abortWithError(c, err)
		return
	}
	pt, err := pointerType(req.PointerType)
	if err != nil {
		abortWithError(c, err)
		return
	}

	evs := s.board.Pointer(fretboard.PointerInput{
		ID:      req.PointerID,
		Type:    pt,
		X:       req.X,
		Y:       req.Y,
		Action:  action,
		Buttons: req.Buttons,
	})
	c.JSON(http.StatusOK, gin.H{
		"events":  notesJSON(evs),
		"hovered": s.board.Hovered(req.PointerID),
	})
}

// streamEvents godoc
// @Summary Stream note events
// @Description Server-sent events, one per note-on or note-off
// @Tags events
// @Produce text/event-stream
// @Success 200 {object} Message
// @Router /api/v1/events [get]
func (s *Server) streamEvents(c *gin.Context) {
	id, ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(id)

	c.Header("X-Subscriber-Id", id.String())
	c.SSEvent("subscribed", gin.H{"subscriber": id.String()})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(msg.Type.String(), msg)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// recentEvents godoc
// @Summary Recent note events
// @Tags events
// @Produce json
// @Param limit query int false "Maximum number of events (default 20)"
// @Success 200 {object} map[string][]Message
// @Failure 400 {object} map[string]string
// @Router /api/v1/events/recent [get]
func (s *Server) recentEvents(c *gin.Context) {
	limit := defaultRecent
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			abortWithError(c, fmt.Errorf("invalid limit %q", q))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"events": s.broker.Recent(limit)})
}
