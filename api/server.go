// Package api serves the breath features of a sensor, or of a remote sensor
// through a receiver, over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/inconshreveable/log15"

	"github.com/biowearables/breath"
)

// Source is where the served features come from.
type Source interface {
	Latest() breath.Features
	SetTargetFrequency(frequency float64) error
}

// Calibrator is implemented by sources attached to the sensor hardware.
type Calibrator interface {
	SetGain(g breath.Gain) error
	Recalibrate()
}

// Link is the telemetry link, which can move to another group.
type Link interface {
	SetGroup(group int) error
}

// Streamer is implemented by links that can pause publishing.
type Streamer interface {
	SetStreaming(on bool)
	Streaming() bool
}

// streamBuffer bounds the features waiting for a slow stream client.
const streamBuffer = 16

// Server is the HTTP API. It implements breath.Publisher to feed the live
// stream.
type Server struct {
	source Source
	link   Link
	log    log.Logger
	engine *gin.Engine

	mu      sync.Mutex
	clients map[chan breath.Features]struct{}
}

// NewServer returns a server for source.
func NewServer(source Source, l log.Logger) *Server {
	s := &Server{
		source:  source,
		log:     l,
		clients: make(map[chan breath.Features]struct{}),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/v1/features.json", s.features)
	r.GET("/api/v1/target.json", s.target)
	r.POST("/api/v1/target.json", s.setTarget)
	r.POST("/api/v1/gain.json", s.setGain)
	r.POST("/api/v1/recalibrate", s.recalibrate)
	r.POST("/api/v1/link.json", s.setLink)
	r.GET("/api/v1/stream", s.stream)

	s.engine = r
	return s
}

// SetLink exposes the telemetry link. It must be called before serving.
func (s *Server) SetLink(l Link) {
	s.link = l
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("serving api", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Publish forwards f to the stream clients. Clients that fall behind miss
// features.
func (s *Server) Publish(f breath.Features) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- f:
		default:
		}
	}
}

func (s *Server) subscribe() chan breath.Features {
	ch := make(chan breath.Features, streamBuffer)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan breath.Features) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *Server) streams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) features(c *gin.Context) {
	c.JSON(http.StatusOK, newSnapshot(s.source.Latest()))
}

func (s *Server) target(c *gin.Context) {
	f := s.source.Latest()
	c.JSON(http.StatusOK, targetRequest{Frequency: f.Target.Frequency})
}

func (s *Server) setTarget(c *gin.Context) {
	var req targetRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.source.SetTargetFrequency(req.Frequency); err != nil {
		c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	s.log.Info("target frequency requested", "frequency", req.Frequency)
	c.JSON(http.StatusAccepted, req)
}

func (s *Server) setGain(c *gin.Context) {
	cal, ok := s.source.(Calibrator)
	if !ok {
		c.AbortWithStatus(http.StatusNotImplemented)
		return
	}

	var req gainRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := cal.SetGain(breath.Gain(req.Gain - 1)); err != nil {
		c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	s.log.Info("gain requested", "gain", req.Gain)
	c.JSON(http.StatusAccepted, req)
}

func (s *Server) recalibrate(c *gin.Context) {
	cal, ok := s.source.(Calibrator)
	if !ok {
		c.AbortWithStatus(http.StatusNotImplemented)
		return
	}
	cal.Recalibrate()
	c.Status(http.StatusAccepted)
}

func (s *Server) setLink(c *gin.Context) {
	if s.link == nil {
		c.AbortWithStatus(http.StatusNotImplemented)
		return
	}

	var req linkRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	if req.Streaming != nil {
		st, ok := s.link.(Streamer)
		if !ok {
			c.AbortWithStatus(http.StatusNotImplemented)
			return
		}
		st.SetStreaming(*req.Streaming)
		s.log.Info("streaming requested", "on", *req.Streaming)
	}
	if req.Group != nil {
		if err := s.link.SetGroup(*req.Group); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		s.log.Info("group requested", "group", *req.Group)
	}

	c.JSON(http.StatusAccepted, req)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// stream pushes every published feature set to a websocket client as JSON.
func (s *Server) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug("could not upgrade stream", "err", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// The client only ever closes, read to notice it.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case f := <-ch:
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteJSON(newSnapshot(f)); err != nil {
				s.log.Debug("stream closed", "err", err)
				return
			}
		}
	}
}
