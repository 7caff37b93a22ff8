package model

import "errors"

var (
	// ErrRateLimited indica que a API do ClickUp retornou 429
	ErrRateLimited = errors.New("rate limit excedido na API do ClickUp")

	// ErrUnauthorized indica token inválido
	ErrUnauthorized = errors.New("token do ClickUp inválido ou expirado")

	// ErrNotFound indica item não encontrado ou não visível
	ErrNotFound = errors.New("item não encontrado ou não visível no ClickUp")

	// ErrTimeout indica timeout na requisição
	ErrTimeout = errors.New("timeout na requisição para o ClickUp")

	// ErrMissingItemID indica que a operação foi chamada sem chave de item
	ErrMissingItemID = errors.New("identificador do item não informado")

	// ErrMissingAssignee indica que não há identidade de trabalhador para o portfólio
	ErrMissingAssignee = errors.New("identidade do trabalhador não informada")

	// ErrInvalidEstimate indica payload de estimativa inválido
	ErrInvalidEstimate = errors.New("estimativa inválida")

	// ErrSaveFailed indica falha ao persistir a estimativa
	ErrSaveFailed = errors.New("falha ao salvar estimativa")
)
