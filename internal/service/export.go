package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Risco"

var reportHeaders = []string{"Item", "Nome", "Prazo", "Horas Estimadas", "Nível", "Motivo"}

// ExportPortfolio gera um relatório Excel do portfólio de um responsável
func (s *RiskService) ExportPortfolio(ctx context.Context, assigneeID string) (*bytes.Buffer, error) {
	result, err := s.Portfolio(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	buf, err := generateRiskReport(result)
	if err != nil {
		return nil, fmt.Errorf("gerar relatório: %w", err)
	}

	metrics.Get().IncrementReportExport()
	logger.Audit(ctx, logger.AuditEvent{
		Action:     logger.AuditActionReportExport,
		Assignee:   result.Assignee,
		Resource:   "portfolio",
		ResourceID: result.Assignee,
		Success:    true,
		Details: map[string]interface{}{
			"open_count": result.Verdict.OpenCount,
			"level":      string(result.Verdict.Level),
		},
	})

	return buf, nil
}

// generateRiskReport monta o arquivo Excel a partir do resultado do portfólio
func generateRiskReport(result *PortfolioResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Renomeia a sheet padrão
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	if err := writeReportHeaders(f); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	if err := writeReportRows(f, result); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	if err := writeReportSummary(f, result); err != nil {
		return nil, fmt.Errorf("escrever resumo: %w", err)
	}

	// Ajusta largura das colunas
	for col := 1; col <= len(reportHeaders); col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheetName, colName, colName, 20); err != nil {
			return nil, fmt.Errorf("ajustar colunas: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

// writeReportHeaders escreve os cabeçalhos do relatório
func writeReportHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}

	return nil
}

// writeReportRows escreve uma linha por item aberto
func writeReportRows(f *excelize.File, result *PortfolioResult) error {
	// Estilo alternado para linhas
	styleOdd, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"F2F2F2"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "D9D9D9", Style: 1},
			{Type: "top", Color: "D9D9D9", Style: 1},
			{Type: "bottom", Color: "D9D9D9", Style: 1},
			{Type: "right", Color: "D9D9D9", Style: 1},
		},
	})

	styleEven, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFFFF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "D9D9D9", Style: 1},
			{Type: "top", Color: "D9D9D9", Style: 1},
			{Type: "bottom", Color: "D9D9D9", Style: 1},
			{Type: "right", Color: "D9D9D9", Style: 1},
		},
	})

	for row, item := range result.Items {
		excelRow := row + 2 // Linha 1 é header

		style := styleEven
		if row%2 == 1 {
			style = styleOdd
		}

		due := ""
		if item.DueTime != nil {
			due = item.DueTime.Format("2006-01-02 15:04")
		}

		hours := ""
		if item.EstimatedHours != nil {
			hours = fmt.Sprintf("%.1f", *item.EstimatedHours)
		}

		values := []interface{}{
			item.ItemID,
			item.Name,
			due,
			hours,
			string(item.Verdict.Level),
			item.Verdict.Reason,
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, excelRow)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeReportSummary escreve o bloco de resumo abaixo dos itens
func writeReportSummary(f *excelize.File, result *PortfolioResult) error {
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return err
	}

	startRow := len(result.Items) + 3

	v := result.Verdict
	lines := [][2]interface{}{
		{"Responsável", result.Assignee},
		{"Veredito", string(v.Level)},
		{"Motivo", v.Reason},
		{"Itens abertos", v.OpenCount},
		{"Itens estimados", v.EstimatedCount},
		{"Itens sem estimativa", v.UnknownCount},
		{"Total estimado (h)", fmt.Sprintf("%.1f", v.TotalEstimatedHours)},
	}

	if v.BudgetHours != nil {
		lines = append(lines, [2]interface{}{"Orçamento (h)", fmt.Sprintf("%.1f", *v.BudgetHours)})
	}
	if v.BufferHours != nil {
		lines = append(lines, [2]interface{}{"Folga (h)", fmt.Sprintf("%.1f", *v.BufferHours)})
	}
	if v.FurthestDueTime != nil {
		lines = append(lines, [2]interface{}{"Prazo mais distante", v.FurthestDueTime.Format("2006-01-02 15:04")})
	}

	for i, line := range lines {
		row := startRow + i

		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheetName, labelCell, line[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, labelCell, labelCell, boldStyle); err != nil {
			return err
		}

		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheetName, valueCell, line[1]); err != nil {
			return err
		}
	}

	return nil
}
