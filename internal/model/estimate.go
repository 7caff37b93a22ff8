package model

import (
	"fmt"
	"time"
)

// Estimate é a estimativa declarada pelo trabalhador para um item.
// Exatamente uma das duas formas é usada na conversão para horas:
// RemainingHours tem precedência quando ambas estão presentes.
type Estimate struct {
	ItemID         string     `json:"item_id"`
	RemainingHours *float64   `json:"remaining_hours,omitempty"`
	TargetTime     *time.Time `json:"target_time,omitempty"`
	RecordedAt     time.Time  `json:"recorded_at"`
}

// EstimateRequest é o payload de gravação de estimativa. A gravação
// substitui integralmente o valor anterior (sem merge parcial).
type EstimateRequest struct {
	RemainingHours *float64   `json:"remaining_hours"`
	TargetTime     *time.Time `json:"target_time"`
}

// Validate valida o payload: pelo menos um campo presente e
// remaining_hours não-negativo quando informado.
func (r EstimateRequest) Validate() error {
	if r.RemainingHours == nil && r.TargetTime == nil {
		return fmt.Errorf("%w: informe remaining_hours ou target_time", ErrInvalidEstimate)
	}
	if r.RemainingHours != nil && *r.RemainingHours < 0 {
		return fmt.Errorf("%w: remaining_hours não pode ser negativo", ErrInvalidEstimate)
	}
	return nil
}
