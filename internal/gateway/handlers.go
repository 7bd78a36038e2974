package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/version"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  version.Version,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"channels": bridge.InvokeChannels(),
	})
}

func (s *Server) invoke(c *gin.Context) {
	channel := c.Param("channel")
	if !bridge.IsInvokeChannel(channel) {
		abortWithError(c, http.StatusForbidden, bridge.ErrChannelNotAllowed)
		return
	}

	body, err := readBody(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	args, err := bridge.ParseArgs(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	raw, err := s.bridge.InvokeRaw(c.Request.Context(), channel, args)
	if err != nil {
		abortWithError(c, invokeStatus(err), err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func invokeStatus(err error) int {
	var proxyErr *bridge.ProxyError
	switch {
	case errors.Is(err, bridge.ErrChannelNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, bridge.ErrInvalidArgs):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrNoHandler):
		return http.StatusNotImplemented
	case errors.As(err, &proxyErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) send(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		abortWithError(c, http.StatusBadRequest, errors.New("body must be JSON"))
		return
	}

	if err := s.bridge.Send(c.Param("channel"), json.RawMessage(body)); err != nil {
		abortWithError(c, http.StatusForbidden, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) events(c *gin.Context) {
	events, cancel, err := s.bridge.Subscribe(c.Param("channel"))
	if err != nil {
		abortWithError(c, http.StatusForbidden, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Channel, string(ev.Payload))
			return true
		}
	})
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return io.ReadAll(c.Request.Body)
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
