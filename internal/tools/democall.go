package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightline-digital/concierge/internal/phone"
)

// CallPlacer starts an outbound call. *voice.Client implements it.
type CallPlacer interface {
	PlaceCall(ctx context.Context, digits10, pathwayID string) (string, error)
}

// DemoCallArgs are the model-supplied arguments for initiate_demo_call.
type DemoCallArgs struct {
	Phone     string `json:"phone"`
	PathwayID string `json:"pathway_id,omitempty"`
}

// DemoCallHandler returns the handler for the initiate_demo_call tool.
// defaultPathwayID is used when the model doesn't pass one.
func DemoCallHandler(placer CallPlacer, defaultPathwayID string) Handler {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var req DemoCallArgs
		if err := json.Unmarshal(args, &req); err != nil {
			return "", fmt.Errorf("invalid initiate_demo_call arguments: %w", err)
		}

		// Validate before touching the network; a malformed number is
		// the model's mistake, not an API failure.
		digits, err := phone.Digits10(req.Phone)
		if err != nil {
			return "", fmt.Errorf("invalid phone number %q: %w", req.Phone, err)
		}

		pathwayID := req.PathwayID
		if pathwayID == "" {
			pathwayID = defaultPathwayID
		}

		callID, err := placer.PlaceCall(ctx, digits, pathwayID)
		if err != nil {
			return "", fmt.Errorf("failed to place call: %w", err)
		}

		out, _ := json.Marshal(map[string]interface{}{
			"success": true,
			"call_id": callID,
			"message": "Demo call is on its way.",
		})
		return string(out), nil
	}
}
