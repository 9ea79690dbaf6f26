package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

// maxReportRows caps the vulnerability table so the PDF stays readable.
const maxReportRows = 50

// PDFExporter renders an enrichment result as a PDF report.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportEnrichedReport generates a PDF summary of the enriched view.
func (e *PDFExporter) ExportEnrichedReport(result *domain.EnrichmentResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, result)
	e.addSummary(pdf, result)
	e.addVulnerabilityTable(pdf, result)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, result *domain.EnrichmentResult) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 14, "Threat Intelligence Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", result.Timestamp.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generation ID: %s", result.GenerationID), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, result *domain.EnrichmentResult) {
	exploited := 0
	withTechniques := 0
	for _, v := range result.Vulnerabilities {
		if v.IsKnownExploited {
			exploited++
		}
		if len(v.MitreAttack) > 0 {
			withTechniques++
		}
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Vulnerabilities: %d", result.VulnerabilityCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Known exploited (CISA KEV): %d", exploited), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("With ATT&CK technique matches: %d", withTechniques), "", 1, "L", false, 0, "")

	if len(result.Warnings) > 0 {
		pdf.SetTextColor(180, 100, 0)
		pdf.CellFormat(0, 6, fmt.Sprintf("Degraded sources: %d", len(result.Warnings)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)
}

func (e *PDFExporter) addVulnerabilityTable(pdf *gofpdf.Fpdf, result *domain.EnrichmentResult) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Top Vulnerabilities", "", 1, "L", false, 0, "")

	// Table header
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(40, 7, "CVE", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "KEV", "1", 0, "C", true, 0, "")
	pdf.CellFormat(85, 7, "Description", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	rows := result.Vulnerabilities
	if len(rows) > maxReportRows {
		rows = rows[:maxReportRows]
	}

	for _, v := range rows {
		score, severity := "-", "-"
		if m := v.BestMetric(); m != nil {
			score = fmt.Sprintf("%.1f", m.Score)
			severity = m.Severity
		}
		kev := ""
		if v.IsKnownExploited {
			kev = "YES"
		}

		desc := v.Description
		if len(desc) > 90 {
			desc = desc[:87] + "..."
		}

		pdf.CellFormat(40, 6, v.ID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, score, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, severity, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, kev, "1", 0, "C", false, 0, "")
		pdf.CellFormat(85, 6, desc, "1", 1, "L", false, 0, "")
	}
}
