package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// postMessageHandler handles POST /api/v1/messages: one inbound client
// message through the full workflow cycle. Processing failures inside
// the cycle still produce a 200 with the fallback result; only payload
// and store-level errors surface as HTTP errors.
func (s *Server) postMessageHandler(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	msg := &models.InboundMessage{
		MsgID:           req.MsgID,
		FromName:        req.FromName,
		FromEmail:       req.FromEmail,
		Subject:         req.Subject,
		Body:            req.Body,
		Ts:              req.Ts,
		ThreadID:        req.ThreadID,
		SessionID:       req.SessionID,
		DepositJustPaid: req.DepositJustPaid,
	}

	result, err := s.router.ProcessMessage(c.Request.Context(), msg, "")
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
