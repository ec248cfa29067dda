package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raulisai/Gateway-IA/src/models"
)

func ptr(v float64) *float64 { return &v }

func TestValidateRequest(t *testing.T) {
	valid := func() *models.GenerationRequest { return chat("hello") }

	tests := []struct {
		name   string
		mutate func(*models.GenerationRequest)
		ok     bool
	}{
		{"valid", func(*models.GenerationRequest) {}, true},
		{"no messages", func(r *models.GenerationRequest) { r.Messages = nil }, false},
		{"bad role", func(r *models.GenerationRequest) { r.Messages[0].Role = "tool" }, false},
		{"negative max tokens", func(r *models.GenerationRequest) { r.MaxTokens = -1 }, false},
		{"temperature bounds", func(r *models.GenerationRequest) { r.Temperature = ptr(2) }, true},
		{"temperature too high", func(r *models.GenerationRequest) { r.Temperature = ptr(2.1) }, false},
		{"top_p zero", func(r *models.GenerationRequest) { r.TopP = ptr(0) }, false},
		{"top_p one", func(r *models.GenerationRequest) { r.TopP = ptr(1) }, true},
		{"negative max cost", func(r *models.GenerationRequest) { r.MaxCost = ptr(-0.01) }, false},
		{"zero max cost", func(r *models.GenerationRequest) { r.MaxCost = ptr(0) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			err := ValidateRequest(req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, models.IsKind(err, models.KindValidation), "got %v", err)
			}
		})
	}

	assert.True(t, models.IsKind(ValidateRequest(nil), models.KindValidation))
}
