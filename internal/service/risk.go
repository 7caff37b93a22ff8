package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/cache"
	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
	"github.com/cleberrangel/clickup-risk-api/internal/risk"
)

// ItemSource fornece os itens abertos e seus prazos (ClickUp)
type ItemSource interface {
	GetTask(ctx context.Context, itemID string) (*model.Task, error)
	GetOpenTasks(ctx context.Context, teamID, assigneeID string) ([]model.Task, error)
}

// EstimateStore persiste as estimativas por item
type EstimateStore interface {
	Get(ctx context.Context, itemID string) (*model.Estimate, error)
	GetByItemIDs(ctx context.Context, itemIDs []string) (map[string]*model.Estimate, error)
	Upsert(ctx context.Context, est model.Estimate) error
	Delete(ctx context.Context, itemID string) error
}

// EventSink recebe eventos de veredito para distribuição em tempo real,
// escopados pelo responsável do item
type EventSink interface {
	PublishVerdict(assigneeID, itemID, level, reason string)
}

// ItemRiskResult é o resultado da avaliação de risco de um item. Além do
// veredito individual carrega o veredito agregado do portfólio do
// responsável, para que uma única leitura responda "e o resto da carga?"
type ItemRiskResult struct {
	ItemID      string                 `json:"item_id"`
	Name        string                 `json:"name"`
	Status      string                 `json:"status"`
	DueTime     *time.Time             `json:"due_time"`
	Estimate    *model.Estimate        `json:"estimate"`
	Verdict     risk.ItemVerdict       `json:"verdict"`
	Portfolio   *risk.PortfolioVerdict `json:"portfolio"`
	EvaluatedAt time.Time              `json:"evaluated_at"`
	URL         string                 `json:"url,omitempty"`
}

// EstimateResult é o resultado da gravação de uma estimativa
type EstimateResult struct {
	ItemID   string           `json:"item_id"`
	Estimate model.Estimate   `json:"estimate"`
	Verdict  risk.ItemVerdict `json:"verdict"`
}

// PortfolioItemSummary resume um item aberto dentro do portfólio
type PortfolioItemSummary struct {
	ItemID         string           `json:"item_id"`
	Name           string           `json:"name"`
	DueTime        *time.Time       `json:"due_time"`
	EstimatedHours *float64         `json:"estimated_hours"`
	Verdict        risk.ItemVerdict `json:"verdict"`
}

// PortfolioResult é o resultado da avaliação agregada de um portfólio
type PortfolioResult struct {
	Assignee    string                 `json:"assignee"`
	Verdict     risk.PortfolioVerdict  `json:"verdict"`
	Items       []PortfolioItemSummary `json:"items"`
	EvaluatedAt time.Time              `json:"evaluated_at"`
}

// RiskService orquestra fonte de itens, estimativas e motor de risco
type RiskService struct {
	source          ItemSource
	store           EstimateStore
	cache           *cache.Cache
	events          EventSink
	teamID          string
	defaultAssignee string
	now             func() time.Time
}

// NewRiskService cria um novo serviço de risco
func NewRiskService(source ItemSource, store EstimateStore, c *cache.Cache, teamID, defaultAssignee string) *RiskService {
	return &RiskService{
		source:          source,
		store:           store,
		cache:           c,
		teamID:          teamID,
		defaultAssignee: defaultAssignee,
		now:             time.Now,
	}
}

// SetEventSink registra o destino dos eventos de veredito
func (s *RiskService) SetEventSink(sink EventSink) {
	s.events = sink
}

// SetClock substitui a fonte de tempo (usado em testes)
func (s *RiskService) SetClock(now func() time.Time) {
	s.now = now
}

// ItemRisk avalia o risco de entrega de um único item
func (s *RiskService) ItemRisk(ctx context.Context, itemID string) (*ItemRiskResult, error) {
	if itemID == "" {
		return nil, model.ErrMissingItemID
	}

	log := logger.Get(ctx)

	cacheKey := "item:" + itemID
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			metrics.Get().IncrementCacheHit()
			result := cached.(*ItemRiskResult)
			return result, nil
		}
		metrics.Get().IncrementCacheMiss()
	}

	task, err := s.source.GetTask(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("buscar item %s: %w", itemID, err)
	}

	est, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("buscar estimativa %s: %w", itemID, err)
	}

	now := s.now().UTC()
	due := task.DueTime()
	verdict := risk.EvaluateItem(now, due, est)

	metrics.Get().IncrementItemEvaluation()

	log.Debug().
		Str("item_id", itemID).
		Str("level", string(verdict.Level)).
		Msg("Item avaliado")

	// A leitura devolve também o veredito do portfólio do responsável.
	// Item sem responsável e sem padrão configurado fica sem portfólio.
	var portfolio *risk.PortfolioVerdict
	if assignee := s.taskAssignee(task); assignee != "" {
		pr, err := s.Portfolio(ctx, assignee)
		if err != nil {
			return nil, fmt.Errorf("avaliar portfólio de %s: %w", assignee, err)
		}
		portfolio = &pr.Verdict
	} else {
		log.Warn().Str("item_id", itemID).Msg("Item sem responsável, portfólio omitido")
	}

	result := &ItemRiskResult{
		ItemID:      task.ID,
		Name:        task.Name,
		Status:      task.Status.Status,
		DueTime:     due,
		Estimate:    est,
		Verdict:     verdict,
		Portfolio:   portfolio,
		EvaluatedAt: now,
		URL:         task.URL,
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, result)
	}

	return result, nil
}

// SaveEstimate grava (cria ou substitui) a estimativa de um item e devolve
// o veredito recalculado
func (s *RiskService) SaveEstimate(ctx context.Context, itemID string, req model.EstimateRequest) (*EstimateResult, error) {
	if itemID == "" {
		return nil, model.ErrMissingItemID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get(ctx)

	// O item precisa ser acessível na fonte antes de aceitar a estimativa
	task, err := s.source.GetTask(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("buscar item %s: %w", itemID, err)
	}

	now := s.now().UTC()
	est := model.Estimate{
		ItemID:         itemID,
		RemainingHours: req.RemainingHours,
		TargetTime:     req.TargetTime,
		RecordedAt:     now,
	}

	if err := s.store.Upsert(ctx, est); err != nil {
		metrics.Get().IncrementEstimateSave(false)
		logger.AuditEstimate(ctx, logger.AuditActionEstimateSave, itemID, false, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", model.ErrSaveFailed, err)
	}

	metrics.Get().IncrementEstimateSave(true)
	logger.AuditEstimate(ctx, logger.AuditActionEstimateSave, itemID, true, nil)

	verdict := risk.EvaluateItem(now, task.DueTime(), &est)

	s.invalidate()

	if s.events != nil {
		s.events.PublishVerdict(s.taskAssignee(task), itemID, string(verdict.Level), verdict.Reason)
	}

	log.Info().
		Str("item_id", itemID).
		Str("level", string(verdict.Level)).
		Msg("Estimativa gravada")

	return &EstimateResult{
		ItemID:   itemID,
		Estimate: est,
		Verdict:  verdict,
	}, nil
}

// DeleteEstimate remove a estimativa de um item
func (s *RiskService) DeleteEstimate(ctx context.Context, itemID string) error {
	if itemID == "" {
		return model.ErrMissingItemID
	}

	if err := s.store.Delete(ctx, itemID); err != nil {
		logger.AuditEstimate(ctx, logger.AuditActionEstimateDelete, itemID, false, map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	metrics.Get().IncrementEstimateDelete()
	logger.AuditEstimate(ctx, logger.AuditActionEstimateDelete, itemID, true, nil)

	s.invalidate()

	if s.events != nil {
		// Melhor esforço: se o item não estiver mais acessível na fonte,
		// o evento sai escopado pelo responsável padrão
		assignee := s.defaultAssignee
		if task, err := s.source.GetTask(ctx, itemID); err == nil {
			assignee = s.taskAssignee(task)
		}
		verdict := risk.EvaluateItem(s.now().UTC(), nil, nil)
		s.events.PublishVerdict(assignee, itemID, string(verdict.Level), verdict.Reason)
	}

	return nil
}

// Portfolio avalia o risco agregado dos itens abertos de um responsável
func (s *RiskService) Portfolio(ctx context.Context, assigneeID string) (*PortfolioResult, error) {
	if assigneeID == "" {
		assigneeID = s.defaultAssignee
	}
	if assigneeID == "" {
		return nil, model.ErrMissingAssignee
	}

	log := logger.Get(ctx)

	cacheKey := "portfolio:" + assigneeID
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			metrics.Get().IncrementCacheHit()
			result := cached.(*PortfolioResult)
			return result, nil
		}
		metrics.Get().IncrementCacheMiss()
	}

	tasks, err := s.source.GetOpenTasks(ctx, s.teamID, assigneeID)
	if err != nil {
		metrics.Get().IncrementUpstreamError()
		return nil, fmt.Errorf("buscar itens abertos: %w", err)
	}

	// A fonte pode devolver itens fechados dependendo dos filtros; garante
	// que só itens abertos entram na agregação
	open := make([]model.Task, 0, len(tasks))
	itemIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsOpen() {
			continue
		}
		open = append(open, t)
		itemIDs = append(itemIDs, t.ID)
	}

	estimates, err := s.store.GetByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("buscar estimativas: %w", err)
	}

	now := s.now().UTC()

	items := make([]risk.PortfolioItem, 0, len(open))
	summaries := make([]PortfolioItemSummary, 0, len(open))
	for _, t := range open {
		due := t.DueTime()
		est := estimates[t.ID]

		items = append(items, risk.PortfolioItem{
			DueTime:  due,
			Estimate: est,
		})

		var estimated *float64
		if hours, ok := risk.ToHours(est, now); ok {
			estimated = &hours
		}

		summaries = append(summaries, PortfolioItemSummary{
			ItemID:         t.ID,
			Name:           t.Name,
			DueTime:        due,
			EstimatedHours: estimated,
			Verdict:        risk.EvaluateItem(now, due, est),
		})
	}

	verdict := risk.EvaluatePortfolio(now, items)

	metrics.Get().IncrementPortfolioEvaluation()

	log.Info().
		Str("assignee", assigneeID).
		Int("open_count", verdict.OpenCount).
		Int("unknown_count", verdict.UnknownCount).
		Str("level", string(verdict.Level)).
		Msg("Portfólio avaliado")

	result := &PortfolioResult{
		Assignee:    assigneeID,
		Verdict:     verdict,
		Items:       summaries,
		EvaluatedAt: now,
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, result)
	}

	return result, nil
}

// taskAssignee resolve o responsável de um item para escopo de portfólio
// e de eventos, caindo no responsável padrão quando o item não tem um
func (s *RiskService) taskAssignee(task *model.Task) string {
	if task != nil && len(task.Assignees) > 0 {
		return strconv.Itoa(task.Assignees[0].ID)
	}
	return s.defaultAssignee
}

// invalidate descarta os resultados em cache afetados por uma escrita.
// Resultados de item embutem o veredito do portfólio, então qualquer
// escrita derruba os dois espaços de chave
func (s *RiskService) invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.InvalidatePrefix("item:")
	s.cache.InvalidatePrefix("portfolio:")
}
