// Package server exposes the controller interface over HTTP. Requests use
// the same typed-message envelope the popup extension speaks: one message
// type triggers a scrape of the current tab, another toggles the persisted
// debug flag.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"linkscrape/internal/debuglog"
	"linkscrape/internal/store"
	"linkscrape/internal/types"
)

// Message types accepted on /message.
const (
	TypeScrape   = "SCRAPE_LINKEDIN"
	TypeSetDebug = "SET_DEBUG"
)

// ScrapeFunc runs one extraction against the active tab.
type ScrapeFunc func(ctx context.Context) (*types.ScrapeResult, error)

// Server dispatches controller messages.
type Server struct {
	scrape   ScrapeFunc
	settings *store.Store
	log      *debuglog.Logger
	engine   *gin.Engine
}

// New creates a Server. settings may be nil, in which case debug toggles
// are not persisted.
func New(scrape ScrapeFunc, settings *store.Store, dbg *debuglog.Logger) *Server {
	s := &Server{
		scrape:   scrape,
		settings: settings,
		log:      dbg,
	}

	engine := gin.Default()
	engine.POST("/message", s.handleMessage)
	s.engine = engine
	return s
}

type envelope struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleMessage(c *gin.Context) {
	var msg envelope
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid message: %v", err)})
		return
	}

	switch msg.Type {
	case TypeScrape:
		id := uuid.NewString()
		s.log.Printf("scrape request %s", id)

		result, err := s.scrape(c.Request.Context())
		if err != nil {
			s.log.Printf("scrape request %s failed: %v", id, err)
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}

		s.log.Printf("scrape request %s done: %d comments", id, result.TotalComments)
		c.JSON(http.StatusOK, gin.H{"result": result})

	case TypeSetDebug:
		s.log.SetEnabled(msg.Enabled)
		if s.settings != nil {
			if err := s.settings.SetBool(store.KeyDebugEnabled, msg.Enabled); err != nil {
				log.Printf("[server] failed to persist debug flag: %v", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[server] listening on %s", addr)
	return s.engine.Run(addr)
}
