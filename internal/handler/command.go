package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

func ticketResponse(ticket *jobs.Ticket) dto.TicketResponse {
	status := dto.TicketPending
	if ticket.IsSettled() {
		status = dto.TicketSucceeded
		if ticket.Err() != nil {
			status = dto.TicketFailed
		}
	}
	return dto.TicketResponse{ID: ticket.ID, Command: ticket.Type, Status: status}
}

// respondTicket answers a command request. A command refused locally answers
// with its error at once. Otherwise the ticket is returned with 202 unless
// the caller asked to wait, in which case the settled outcome is returned
// and view, when given, renders the body.
func respondTicket(c *gin.Context, ticket *jobs.Ticket, view func() interface{}) {
	if ticket.IsSettled() && ticket.Err() != nil {
		response.Error(c, ticket.Err())
		return
	}
	if !waitRequested(c) {
		response.JSON(c, http.StatusAccepted, ticketResponse(ticket), middleware.ExtractMeta(c))
		return
	}
	if err := ticket.Wait(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	var data interface{} = ticketResponse(ticket)
	if view != nil {
		data = view()
		middleware.SetMeta(c, "ticket", ticket.ID)
	}
	response.JSON(c, http.StatusOK, data, middleware.ExtractMeta(c))
}

func waitRequested(c *gin.Context) bool {
	wait, _ := strconv.ParseBool(c.Query("wait"))
	return wait
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid appointment id"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
