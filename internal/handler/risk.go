package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
	"github.com/cleberrangel/clickup-risk-api/internal/service"
	"github.com/gin-gonic/gin"
)

// RiskServicer expõe as operações de risco usadas pelo handler
type RiskServicer interface {
	ItemRisk(ctx context.Context, itemID string) (*service.ItemRiskResult, error)
	SaveEstimate(ctx context.Context, itemID string, req model.EstimateRequest) (*service.EstimateResult, error)
	DeleteEstimate(ctx context.Context, itemID string) error
	Portfolio(ctx context.Context, assigneeID string) (*service.PortfolioResult, error)
	ExportPortfolio(ctx context.Context, assigneeID string) (*bytes.Buffer, error)
}

// RiskHandler manipula requisições de avaliação de risco
type RiskHandler struct {
	svc RiskServicer
}

// NewRiskHandler cria um novo handler de risco
func NewRiskHandler(svc RiskServicer) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// GetItemRisk devolve o veredito de risco de um item
// @Summary      Avalia o risco de um item
// @Tags         risk
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do item"
// @Success      200 {object} model.Response
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/items/{id}/risk [get]
func (h *RiskHandler) GetItemRisk(c *gin.Context) {
	itemID := c.Param("id")

	result, err := h.svc.ItemRisk(c.Request.Context(), itemID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    result,
	})
}

// SaveEstimate grava a estimativa de um item
// @Summary      Grava a estimativa de um item
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do item"
// @Param        request body model.EstimateRequest true "Estimativa"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/items/{id}/estimate [put]
func (h *RiskHandler) SaveEstimate(c *gin.Context) {
	itemID := c.Param("id")

	var req model.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "payload inválido",
			Details: err.Error(),
		})
		return
	}

	result, err := h.svc.SaveEstimate(c.Request.Context(), itemID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    result,
	})
}

// DeleteEstimate remove a estimativa de um item
// @Summary      Remove a estimativa de um item
// @Tags         estimates
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID do item"
// @Success      200 {object} model.Response
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/items/{id}/estimate [delete]
func (h *RiskHandler) DeleteEstimate(c *gin.Context) {
	itemID := c.Param("id")

	if err := h.svc.DeleteEstimate(c.Request.Context(), itemID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
	})
}

// GetPortfolio devolve o veredito agregado do portfólio de um responsável
// @Summary      Avalia o portfólio de um responsável
// @Tags         risk
// @Produce      json
// @Security     BearerAuth
// @Param        assignee query string false "ID do responsável"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/portfolio [get]
func (h *RiskHandler) GetPortfolio(c *gin.Context) {
	assignee := c.Query("assignee")

	result, err := h.svc.Portfolio(c.Request.Context(), assignee)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    result,
	})
}

// ExportPortfolio devolve o relatório Excel do portfólio
// @Summary      Exporta o portfólio em Excel
// @Tags         risk
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        assignee query string false "ID do responsável"
// @Success      200 {file} binary
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/portfolio/report [get]
func (h *RiskHandler) ExportPortfolio(c *gin.Context) {
	assignee := c.Query("assignee")

	buf, err := h.svc.ExportPortfolio(c.Request.Context(), assignee)
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("risco_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// handleError trata erros e retorna resposta apropriada
func (h *RiskHandler) handleError(c *gin.Context, err error) {
	log := logger.FromGin(c)
	log.Warn().Err(err).Msg("Erro ao processar requisição")

	switch {
	case errors.Is(err, model.ErrMissingItemID):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "id do item é obrigatório",
		})
	case errors.Is(err, model.ErrMissingAssignee):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "responsável é obrigatório",
			Details: "informe ?assignee= ou configure CLICKUP_ASSIGNEE",
		})
	case errors.Is(err, model.ErrInvalidEstimate):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "estimativa inválida",
			Details: err.Error(),
		})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Error:   "item não encontrado",
			Details: "item inacessível ou chave inválida",
		})
	case errors.Is(err, model.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
			Success: false,
			Error:   "rate limit excedido",
			Details: "aguarde alguns segundos e tente novamente",
		})
	case errors.Is(err, model.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Success: false,
			Error:   "token do ClickUp inválido",
			Details: "verifique a variável TOKEN_CLICKUP",
		})
	case errors.Is(err, model.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, model.ErrorResponse{
			Success: false,
			Error:   "timeout na requisição",
			Details: "a API do ClickUp demorou muito para responder",
		})
	case errors.Is(err, model.ErrSaveFailed):
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "falha ao gravar estimativa",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro interno",
			Details: err.Error(),
		})
	}
}
