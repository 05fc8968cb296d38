package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/vinspect/vinspectgo/internal/models"
)

// Generate renders a one-page(+) inspection report PDF with a QR code
// carrying the human-readable request ID
func Generate(req *models.InspectionRequest, rec *models.InspectionRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Vehicle Inspection Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, req.RequestID, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// QR code with the request ID, top right
	qrPng, err := qrcode.Encode(req.RequestID, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	_ = pdf.RegisterImageOptionsReader("request_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("request_qr", 165, 12, 30, 30, false, imgOptions, 0, "")

	// Vehicle details
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Vehicle", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)

	vi := rec.VehicleInfo
	lines := []string{
		fmt.Sprintf("Make / Model: %s %s (%d)", vi.Make, vi.Model, vi.Year),
	}
	if vi.VIN != "" {
		lines = append(lines, "VIN: "+vi.VIN)
	}
	if vi.LicensePlate != "" {
		lines = append(lines, "License plate: "+vi.LicensePlate)
	}
	if vi.Mileage > 0 {
		lines = append(lines, fmt.Sprintf("Mileage: %d km", vi.Mileage))
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Checklist sections
	for _, t := range rec.Types {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(130, 8, t.TypeName, "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Average: %.2f", t.AverageRating), "B", 1, "R", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, item := range t.Items {
			pdf.CellFormat(100, 5, item.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 5, item.Status, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, fmt.Sprintf("%.1f", item.Rating), "", 1, "R", false, 0, "")
			if item.Remarks != "" {
				pdf.SetFont("Arial", "I", 8)
				pdf.CellFormat(0, 4, "  "+item.Remarks, "", 1, "L", false, 0, "")
				pdf.SetFont("Arial", "", 9)
			}
		}
		if t.OverallRemarks != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 5, t.OverallRemarks, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	// Overall rating
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Overall rating: %.2f / 5", rec.OverallRating), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
