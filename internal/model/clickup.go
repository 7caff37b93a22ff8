package model

import (
	"strconv"
	"time"
)

// TaskResponse representa a resposta da API do ClickUp para listagem de tarefas
type TaskResponse struct {
	Tasks    []Task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

// Task representa uma tarefa do ClickUp (snapshot somente-leitura)
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	DateUpdated string     `json:"date_updated"`
	DueDate     string     `json:"due_date"`
	StartDate   string     `json:"start_date"`
	Assignees   []Assignee `json:"assignees"`
	List        ListInfo   `json:"list"`
	URL         string     `json:"url"`
}

// Status representa o status de uma tarefa
type Status struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Assignee representa um responsável pela tarefa
type Assignee struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ListInfo informações básicas da lista
type ListInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserResponse representa a resposta da API para informações do usuário
type UserResponse struct {
	User UserInfo `json:"user"`
}

// UserInfo representa informações básicas do usuário
type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IsOpen indica se a tarefa está em status não-terminal
func (t Task) IsOpen() bool {
	switch t.Status.Type {
	case "closed", "done":
		return false
	}
	return true
}

// DueTime resolve o due date bruto (epoch millis em string) para um
// instante UTC. Due dates com granularidade de data (meia-noite UTC)
// são tratados como fim do dia: o início do dia seguinte. Valor ausente
// ou ilegível resolve para nil, nunca para erro.
func (t Task) DueTime() *time.Time {
	ms, err := strconv.ParseInt(t.DueDate, 10, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	due := time.UnixMilli(ms).UTC()
	if due.Equal(due.Truncate(24 * time.Hour)) {
		due = due.Add(24 * time.Hour)
	}
	return &due
}
