// Package api exposes container inspection and string round trips over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/UserUnknownFactor/psbtool/internal/logger"
	"github.com/UserUnknownFactor/psbtool/pkg/psb"
)

// DefaultMaxBodyBytes caps uploaded containers.
const DefaultMaxBodyBytes = 64 << 20

const mimeOctetStream = "application/octet-stream"

type Config struct {
	Options      psb.Options
	MaxBodyBytes int64
	Store        *ContainerStore
	Logger       logger.Logger
}

type Server struct {
	opts    psb.Options
	maxBody int64
	store   *ContainerStore
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(cfg Config) *Server {
	s := &Server{
		opts:    cfg.Options,
		maxBody: cfg.MaxBodyBytes,
		store:   cfg.Store,
		log:     cfg.Logger,
		clock:   time.Now,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.store == nil {
		s.store = NewContainerStore(0)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/inspect", s.handleInspect)
	e.POST("/v1/strings/extract", s.handleExtract)
	e.POST("/v1/strings/apply", s.handleApply)
	e.GET("/v1/containers/:id", s.handleGetContainer)
	e.DELETE("/v1/containers/:id", s.handleDeleteContainer)
}

func (s *Server) load(c *echo.Context) (*psb.Container, error) {
	body, err := readBody(c, s.maxBody)
	if err != nil {
		return nil, err
	}
	return psb.Load(body, s.opts)
}

func (s *Server) handleInspect(c *echo.Context) error {
	ct, err := s.load(c)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, InspectResponse{Summary: ct.Summarize()})
}

func (s *Server) handleExtract(c *echo.Context) error {
	ct, err := s.load(c)
	if err != nil {
		return writeErr(c, err)
	}
	now := s.clock()
	id := s.store.Put(ct, now)
	s.log.Debug("extracted", "id", id, "strings", len(ct.CallOrder()))
	return c.JSON(http.StatusOK, ExtractResponse{
		ID:        id,
		Object:    "psb.strings",
		CreatedAt: now.Unix(),
		Strings:   ct.Strings(),
		Embedded:  ct.HasEmbeddedReferences(),
	})
}

func (s *Server) handleApply(c *echo.Context) error {
	body, err := readBody(c, s.maxBody)
	if err != nil {
		return writeErr(c, err)
	}
	req, err := decodeJSON[ApplyRequest](body)
	if err != nil {
		return writeErr(c, err)
	}
	if (req.ID == "") == (len(req.Container) == 0) {
		return writeBadRequest(c, "exactly one of id and container is required")
	}

	opts := s.opts
	if req.Compress != "" {
		opts.Compress = psb.ParseCompressMode(req.Compress)
	}

	var ct *psb.Container
	if req.ID != "" {
		rec, ok := s.store.Get(req.ID)
		if !ok {
			return writeErr(c, fmt.Errorf("%w: container %s", ErrNotFound, req.ID))
		}
		ct = rec.Container.WithOptions(opts)
	} else if ct, err = psb.Load(req.Container, opts); err != nil {
		return writeErr(c, err)
	}

	out, err := ct.ExportStrings(req.Strings)
	if err != nil {
		return writeErr(c, err)
	}
	s.log.Debug("applied", "id", req.ID, "size", len(out))
	return c.Blob(http.StatusOK, mimeOctetStream, out)
}

func (s *Server) handleGetContainer(c *echo.Context) error {
	id := c.Param("id")
	rec, ok := s.store.Get(id)
	if !ok {
		return writeErr(c, fmt.Errorf("%w: container %s", ErrNotFound, id))
	}
	return c.JSON(http.StatusOK, InspectResponse{ID: id, Summary: rec.Container.Summarize()})
}

func (s *Server) handleDeleteContainer(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeErr(c, fmt.Errorf("%w: container %s", ErrNotFound, id))
	}
	return c.JSON(http.StatusOK, DeleteResponse{ID: id, Object: "psb.container.deleted", Deleted: true})
}
