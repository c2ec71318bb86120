package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"backend/models"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GeneratePurchaseOrderPDF godoc
// @Summary      Generate purchase order PDF
// @Tags         PurchaseOrders
// @Param        id   path  int  true  "Purchase order ID"
// @Success      200  "PDF file"
// @Failure      400  {object}  object
// @Failure      404  {object}  object
// @Router       /api/purchase-orders/{id}/pdf [get]
func GeneratePurchaseOrderPDF(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
			return
		}

		titleCaser := cases.Title(language.Und)

		po, err := fetchPurchaseOrder(db, id)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// --- Fetch supplier and buyer details ---
		var supplier models.Vendor
		err = db.QueryRow(`
			SELECT name, email, phone, address, contact_person FROM vendors WHERE id = $1`,
			po.SupplierID).
			Scan(&supplier.Name, &supplier.Email, &supplier.Phone, &supplier.Address, &supplier.ContactPerson)
		if err != nil && err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var buyerName, buyerEmail string
		err = db.QueryRow(`
			SELECT CONCAT(first_name, ' ', last_name), email FROM users WHERE id = $1`,
			po.BuyerID).Scan(&buyerName, &buyerEmail)
		if err != nil && err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "PURCHASE ORDER")

		// QR code in the top-right corner for goods-receipt scanning
		qrPNG, err := qrcode.Encode(po.PONumber, qrcode.Medium, 256)
		if err != nil {
			log.Printf("Failed to generate QR code for PO %s: %v", po.PONumber, err)
		} else {
			pdf.RegisterImageOptionsReader("po-qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
			pdf.ImageOptions("po-qr", 172, 8, 28, 28, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.Ln(12)

		// --- Supplier & Buyer ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(95, 8, "Supplier")
		pdf.Cell(95, 8, "Buyer")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(90, 6, fmt.Sprintf(
			"%s\n%s\n%s\n%s\n%s",
			supplier.Name, supplier.ContactPerson, supplier.Address, supplier.Email, supplier.Phone,
		), "", "", false)
		pdf.SetXY(110, 38)
		pdf.MultiCell(90, 6, fmt.Sprintf("%s\n%s", buyerName, buyerEmail), "", "", false)
		pdf.Ln(10)

		// --- Order Info ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("PO No: %s", po.PONumber))
		if po.ExpectedDate != nil {
			pdf.Cell(95, 6, fmt.Sprintf("Expected Date: %s", po.ExpectedDate.Format("02-Jan-2006")))
		}
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 6, fmt.Sprintf("Order Date: %s", po.CreatedAt.Format("02-Jan-2006")))
		pdf.Cell(95, 6, fmt.Sprintf("Status: %s", titleCaser.String(po.Status)))
		pdf.Ln(10)

		// --- Table Header ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(85, 8, "Item", "1", 0, "L", true, 0, "")
		pdf.CellFormat(25, 8, "Qty", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 8, "Unit Price", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 8, "Total", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		var grandTotal float64
		for _, li := range po.LineItems {
			grandTotal += li.TotalPrice

			pdf.CellFormat(85, 8, li.Description, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", li.Quantity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", li.UnitPrice), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", li.TotalPrice), "1", 1, "R", false, 0, "")
		}

		pdf.Ln(5)

		// --- Totals ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(145, 8, fmt.Sprintf("Total Amount (%s)", po.Currency))
		pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", grandTotal), "1", 1, "R", false, 0, "")

		// --- Terms ---
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 8, "Payment Terms:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, po.PaymentTerms, "", "L", false)
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 8, "Delivery Terms:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, po.DeliveryTerms, "", "L", false)

		// --- Footer ---
		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(190, 6, "This is a computer-generated purchase order. No signature required.")
		pdf.Ln(5)
		pdf.Cell(190, 6, "Generated on: "+time.Now().Format("2006-01-02 15:04:05"))

		// --- Output PDF ---
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", po.PONumber))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}
	}
}
