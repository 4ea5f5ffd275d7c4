package server

import (
	"meetslot/internal/assistant"
	"meetslot/internal/icloud"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// scheduleResponse adds the optional iCalendar invite to a MeetingResponse.
type scheduleResponse struct {
	*assistant.MeetingResponse
	Invite string `json:"Invite,omitempty"`
}

func (s *Server) handleSchedule(c *gin.Context) {
	var req assistant.MeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &assistant.MeetingResponse{
			Error: "invalid request body: " + err.Error(),
			MetaData: assistant.MetaData{
				Status: assistant.StatusFailed,
				Reason: assistant.ReasonInvalidRequest,
			},
		})
		return
	}

	resp, err := s.scheduler.Schedule(c.Request.Context(), req)
	if err != nil {
		reason := assistant.Reason(err)
		if resp == nil {
			resp = &assistant.MeetingResponse{
				RequestID: req.RequestID,
				Error:     err.Error(),
				MetaData:  assistant.MetaData{Status: assistant.StatusFailed, Reason: reason},
			}
		}
		c.JSON(statusFor(reason), resp)
		return
	}

	out := scheduleResponse{MeetingResponse: resp}
	if wantICS, _ := strconv.ParseBool(c.Query("ics")); wantICS {
		invite, err := icloud.EncodeInvite(resp.Meeting, req.From, s.opts.Now())
		if err != nil {
			s.logger.Error("Failed to render invite", "requestID", resp.RequestID, "error", err)
		} else {
			out.Invite = invite
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Scheduler Ready",
		"timestamp": s.opts.Now().Format(time.RFC3339),
	})
}

// statusFor maps a failure reason to an HTTP status. Finding no slot is a
// normal outcome and answers 200 with the failure described in the body.
func statusFor(reason string) int {
	switch reason {
	case assistant.ReasonNoAvailability:
		return http.StatusOK
	case assistant.ReasonInvalidRequest:
		return http.StatusBadRequest
	case assistant.ReasonInvalidDuration:
		return http.StatusUnprocessableEntity
	case assistant.ReasonMissingCredentials:
		return http.StatusFailedDependency
	case assistant.ReasonCalendarUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
