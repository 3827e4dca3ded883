package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chatharvard/chatharvard-go/internal/advisor"
	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/ctxutil"
	domerrors "github.com/chatharvard/chatharvard-go/internal/errors"
	"github.com/chatharvard/chatharvard-go/internal/query"
	"github.com/chatharvard/chatharvard-go/internal/snapshot"
	"github.com/chatharvard/chatharvard-go/internal/timeouts"
)

var chatWrap = domerrors.NewWrapper("server", "chat_context")

// chatRequest is the POST /api/chat/context body.
type chatRequest struct {
	SessionID string                 `json:"sessionId"`
	Message   string                 `json:"message" binding:"required"`
	Profile   *catalog.Profile       `json:"profile"`
	History   []query.Turn           `json:"history"`
	PrevQuery *query.StructuredQuery `json:"prevQuery"`
}

// handleChatContext runs one advisor pipeline turn and returns the
// structured context payload for the conversational layer.
func (s *server) handleChatContext(c *gin.Context) {
	var req chatRequest
	// BindBodyWith reuses the body the rate-limit middleware already read.
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		wrapped := chatWrap.Wrap(domerrors.ErrInvalidInput, "message is required")
		s.metrics.RecordHTTPError("bad_request", "chat_context")
		c.JSON(http.StatusBadRequest, gin.H{"error": domerrors.GetUserMessage(wrapped)})
		return
	}

	ctx := c.Request.Context()
	if req.SessionID != "" {
		ctx = ctxutil.WithSessionID(ctx, req.SessionID)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.RequestProcessing)
	defer cancel()

	resp, err := s.engine.Respond(ctx, advisor.Request{
		Utterance: req.Message,
		Profile:   req.Profile,
		History:   req.History,
		PrevQuery: req.PrevQuery,
	})
	if err != nil {
		switch {
		case errors.Is(err, domerrors.ErrCatalogUnavailable):
			s.metrics.RecordHTTPError("catalog_unavailable", "chat_context")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": domerrors.GetUserMessage(err)})
		default:
			s.metrics.RecordHTTPError("internal", "chat_context")
			s.log.WithError(err).Error("Chat context request failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleGetCourse looks a course up by its code, optionally pinned to
// a term via ?term=.
func (s *server) handleGetCourse(c *gin.Context) {
	idx, err := s.provider.Current()
	if err != nil {
		s.metrics.RecordHTTPError("catalog_unavailable", "get_course")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog is not loaded yet"})
		return
	}

	code := c.Param("code")
	var rec *catalog.CourseRecord
	var ok bool
	if term := c.Query("term"); term != "" {
		rec, ok = idx.Store.GetByCodeTerm(code, term)
	} else {
		rec, ok = idx.Store.GetByCode(code)
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// handleSimilarCourses returns same-department, same-level courses
// ranked by rating.
func (s *server) handleSimilarCourses(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	similar, err := s.engine.SimilarCourses(c.Param("code"), limit)
	if err != nil {
		switch {
		case errors.Is(err, domerrors.ErrCatalogUnavailable):
			s.metrics.RecordHTTPError("catalog_unavailable", "similar_courses")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog is not loaded yet"})
		case errors.Is(err, domerrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": domerrors.GetUserMessage(err)})
		default:
			s.metrics.RecordHTTPError("internal", "similar_courses")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	if similar == nil {
		similar = []catalog.CourseRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"courses": similar})
}

// handleRefresh forces a snapshot check outside the poll cadence.
func (s *server) handleRefresh(c *gin.Context) {
	if s.manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot sync is not configured"})
		return
	}

	// Detach from the request context so a client disconnect cannot
	// abort a download mid-swap; tracing IDs carry over for the logs.
	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(c.Request.Context()), timeouts.SnapshotDownload)
	defer cancel()

	swapped, err := s.manager.Refresh(ctx, "manual", true)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNoSnapshot):
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot published"})
		case errors.Is(err, context.DeadlineExceeded):
			s.metrics.RecordHTTPError("timeout", "refresh")
			s.log.WithError(err).Warn("Snapshot refresh timed out")
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": domerrors.ErrTimeout.Error()})
		default:
			s.metrics.RecordHTTPError("internal", "refresh")
			s.log.WithError(err).Error("Manual refresh failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"swapped": swapped,
		"etag":    s.manager.CurrentETag(),
	})
}
