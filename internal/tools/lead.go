package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightline-digital/concierge/internal/crm"
)

// LeadUpserter writes a lead to the CRM. *crm.Client implements it.
type LeadUpserter interface {
	UpsertLead(ctx context.Context, lead crm.Lead) (string, bool, error)
}

// LeadArgs are the model-supplied arguments for create_lead.
type LeadArgs struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// CreateLeadHandler returns the handler for the create_lead tool.
func CreateLeadHandler(upserter LeadUpserter) Handler {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req LeadArgs
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("invalid create_lead arguments: %w", err)
		}
		if req.Name == "" || req.Phone == "" {
			return "", fmt.Errorf("create_lead requires name and phone")
		}

		custom := map[string]string{}
		if req.Company != "" {
			custom["company"] = req.Company
		}
		if req.Notes != "" {
			custom["notes"] = req.Notes
		}

		contactID, created, err := upserter.UpsertLead(ctx, crm.Lead{
			Name:        req.Name,
			Phone:       req.Phone,
			Email:       req.Email,
			Tags:        []string{"AI Chat Demo"},
			Source:      "Assistant API",
			CustomField: custom,
		})
		if err != nil {
			return "", fmt.Errorf("failed to save lead: %w", err)
		}

		action := "updated"
		if created {
			action = "created"
		}
		out, _ := json.Marshal(map[string]interface{}{
			"success":    true,
			"contact_id": contactID,
			"action":     action,
		})
		return string(out), nil
	}
}
