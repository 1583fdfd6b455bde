package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/mailservice/httpclient"
)

// defaultInstructions applies when a generate-reply request omits them.
const defaultInstructions = "positive"

// idSender is implemented by services that report the ID of a sent reply.
type idSender interface {
	SendWithID(ctx context.Context, req mailservice.SendRequest) (string, error)
}

type handlers struct {
	svc mailservice.Service
	log *zap.Logger
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) recent(c *gin.Context) {
	emails, err := h.svc.ListRecent(c.Request.Context(), credential(c))
	if err != nil {
		h.fail(c, "Failed to fetch emails", err)
		return
	}
	if emails == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, emails)
}

func (h *handlers) generateReply(c *gin.Context) {
	var req httpclient.GenerateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, httpclient.ErrorResponse{Detail: "Invalid request body"})
		return
	}
	if req.Instructions == "" {
		req.Instructions = defaultInstructions
	}

	reply, err := h.svc.DraftReply(c.Request.Context(), credential(c),
		req.EmailID, req.OriginalContent, req.Instructions)
	if err != nil {
		h.fail(c, "Failed to generate reply", err)
		return
	}
	c.JSON(http.StatusOK, httpclient.GenerateReplyResponse{Reply: reply})
}

func (h *handlers) send(c *gin.Context) {
	var body httpclient.SendRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.To == "" {
		c.JSON(http.StatusUnprocessableEntity, httpclient.ErrorResponse{Detail: "Invalid request body"})
		return
	}

	req := mailservice.SendRequest{
		To:       body.To,
		Subject:  body.Subject,
		Body:     body.Body,
		ThreadID: body.ThreadID,
	}

	var (
		id  string
		err error
	)
	if s, ok := h.svc.(idSender); ok {
		id, err = s.SendWithID(c.Request.Context(), req)
	} else {
		err = h.svc.Send(c.Request.Context(), credential(c), req)
	}
	if err != nil {
		h.fail(c, "Failed to send email", err)
		return
	}
	c.JSON(http.StatusOK, httpclient.StatusResponse{Status: "sent", ID: id})
}

func (h *handlers) trash(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Trash(c.Request.Context(), credential(c), id); err != nil {
		h.fail(c, "Failed to delete email", err)
		return
	}
	c.JSON(http.StatusOK, httpclient.StatusResponse{Status: "deleted"})
}

func (h *handlers) fail(c *gin.Context, detail string, err error) {
	h.log.Error(detail, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, httpclient.ErrorResponse{Detail: detail})
}
