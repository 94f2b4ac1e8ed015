package http

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/internal/crm"
	"github.com/brightline-digital/concierge/internal/domain"
	"github.com/brightline-digital/concierge/internal/phone"
)

// DemoCall places an outbound demo call and, best effort, records the
// requester as a CRM lead.
func (h *Handler) DemoCall(c echo.Context) error {
	var req domain.DemoCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	digits, err := phone.Digits10(req.PhoneNumber)
	if err != nil {
		return c.JSON(http.StatusBadRequest, domain.DemoCallResponse{
			Message: "Please provide a valid 10-digit US phone number.",
		})
	}

	if h.voice == nil {
		return c.JSON(http.StatusServiceUnavailable, domain.DemoCallResponse{
			Message: "Demo calls are not available right now.",
		})
	}

	pathwayID := req.PathwayID
	if pathwayID == "" {
		pathwayID = h.config.PathwayID
	}

	ctx := c.Request().Context()
	callID, err := h.voice.PlaceCall(ctx, digits, pathwayID)
	if err != nil {
		log.Printf("demo call to %s failed: %v", digits, err)
		return c.JSON(http.StatusBadGateway, domain.DemoCallResponse{
			Message: "We couldn't place the call. Please try again shortly.",
		})
	}

	// CRM is best effort: a failed upsert never fails the placed call.
	contactID := ""
	if h.crm != nil {
		id, _, err := h.crm.UpsertLead(ctx, crm.Lead{
			Name:   req.Name,
			Phone:  digits,
			Email:  req.Email,
			Tags:   []string{"Voice Demo"},
			Source: "Demo Call Form",
		})
		if err != nil {
			log.Printf("demo call %s: lead upsert failed: %v", callID, err)
		} else {
			contactID = id
			if err := h.crm.AddNote(ctx, id, fmt.Sprintf("Demo call placed (call id %s).", callID)); err != nil {
				log.Printf("demo call %s: add note failed: %v", callID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, domain.DemoCallResponse{
		Success:   true,
		CallID:    callID,
		ContactID: contactID,
		Message:   "Your demo call is on its way!",
	})
}
