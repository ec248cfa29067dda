package gateway

import (
	"github.com/raulisai/Gateway-IA/src/models"
)

var validRoles = map[string]struct{}{
	models.RoleSystem:    {},
	models.RoleUser:      {},
	models.RoleAssistant: {},
	models.RoleFunction:  {},
}

// ValidateRequest rejects requests no provider could serve.
func ValidateRequest(req *models.GenerationRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return models.NewValidationError("messages must not be empty")
	}
	for i, m := range req.Messages {
		if _, ok := validRoles[m.Role]; !ok {
			return models.NewValidationError("messages[%d]: invalid role %q", i, m.Role)
		}
	}
	if req.MaxTokens < 0 {
		return models.NewValidationError("max_tokens must not be negative")
	}
	if t := req.Temperature; t != nil && (*t < 0 || *t > 2) {
		return models.NewValidationError("temperature must be between 0 and 2")
	}
	if p := req.TopP; p != nil && (*p <= 0 || *p > 1) {
		return models.NewValidationError("top_p must be in (0, 1]")
	}
	if c := req.MaxCost; c != nil && *c < 0 {
		return models.NewValidationError("max_cost must not be negative")
	}
	return nil
}
