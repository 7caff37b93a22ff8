package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
	"github.com/lib/pq"
)

// EstimateRepository gerencia estimativas no banco
type EstimateRepository struct {
	db *sql.DB
}

// NewEstimateRepository cria um novo repositório de estimativas
func NewEstimateRepository(db *sql.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// Get retorna a estimativa corrente de um item, ou nil se não existir
func (r *EstimateRepository) Get(ctx context.Context, itemID string) (*model.Estimate, error) {
	query := `
		SELECT item_id, remaining_hours, target_time, recorded_at
		FROM estimates
		WHERE item_id = $1
	`

	var est model.Estimate
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&est.ItemID,
		&est.RemainingHours,
		&est.TargetTime,
		&est.RecordedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item ainda não tem estimativa
		}
		return nil, fmt.Errorf("erro ao buscar estimativa: %w", err)
	}

	return &est, nil
}

// GetByItemIDs retorna as estimativas existentes para um conjunto de itens,
// indexadas por item_id. Itens sem estimativa simplesmente não aparecem.
func (r *EstimateRepository) GetByItemIDs(ctx context.Context, itemIDs []string) (map[string]*model.Estimate, error) {
	estimates := make(map[string]*model.Estimate, len(itemIDs))
	if len(itemIDs) == 0 {
		return estimates, nil
	}

	query := `
		SELECT item_id, remaining_hours, target_time, recorded_at
		FROM estimates
		WHERE item_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar estimativas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var est model.Estimate
		if err := rows.Scan(&est.ItemID, &est.RemainingHours, &est.TargetTime, &est.RecordedAt); err != nil {
			return nil, fmt.Errorf("erro ao escanear estimativa: %w", err)
		}
		estimates[est.ItemID] = &est
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar estimativas: %w", err)
	}

	return estimates, nil
}

// Upsert insere ou substitui integralmente a estimativa de um item.
// Campos nil sobrescrevem o valor anterior com NULL: cada gravação
// re-informa o registro completo, sem merge parcial.
func (r *EstimateRepository) Upsert(ctx context.Context, est model.Estimate) error {
	log := logger.Get(ctx)

	query := `
		INSERT INTO estimates (item_id, remaining_hours, target_time, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE SET
			remaining_hours = EXCLUDED.remaining_hours,
			target_time = EXCLUDED.target_time,
			recorded_at = EXCLUDED.recorded_at
	`

	_, err := r.db.ExecContext(ctx, query, est.ItemID, est.RemainingHours, est.TargetTime, est.RecordedAt)
	if err != nil {
		log.Error().Err(err).Str("item_id", est.ItemID).Msg("Erro ao inserir/atualizar estimativa")
		return fmt.Errorf("erro ao inserir/atualizar estimativa: %w", err)
	}

	log.Info().Str("item_id", est.ItemID).Msg("Estimativa gravada")
	return nil
}

// Delete remove a estimativa de um item
func (r *EstimateRepository) Delete(ctx context.Context, itemID string) error {
	log := logger.Get(ctx)

	query := "DELETE FROM estimates WHERE item_id = $1"

	result, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		log.Error().Err(err).Str("item_id", itemID).Msg("Erro ao remover estimativa")
		return fmt.Errorf("erro ao remover estimativa: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: estimativa do item %s", model.ErrNotFound, itemID)
	}

	log.Info().Str("item_id", itemID).Msg("Estimativa removida")
	return nil
}
