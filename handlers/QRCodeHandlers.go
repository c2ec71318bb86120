package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log"
	"net/http"
	"strconv"

	"backend/models"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// GeneratePOQRCodeJPEG godoc
// @Summary      Generate purchase order QR code as JPEG
// @Tags         qr
// @Param        id   path      int  true  "Purchase order ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      400  {object}  object
// @Router       /api/purchase-orders/{id}/qr [get]
func GeneratePOQRCodeJPEG(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poID := c.Param("id")
		if poID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Purchase order ID is required"})
			return
		}

		id, err := strconv.Atoi(poID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
			return
		}

		var poNumber, status, currency string
		var supplierName sql.NullString
		var totalAmount float64
		var expectedDate sql.NullTime

		err = db.QueryRow(`
			SELECT po.po_number, po.status, po.currency, po.total_amount, po.expected_date,
				COALESCE(v.name, 'Unknown Supplier') AS supplier_name
			FROM purchase_orders po
			LEFT JOIN vendors v ON po.supplier_id = v.id
			WHERE po.id = $1`, id).
			Scan(&poNumber, &status, &currency, &totalAmount, &expectedDate, &supplierName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
				return
			}
			log.Printf("Error fetching purchase order details: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase order details"})
			return
		}

		// The QR payload carries enough to verify the order at the gate. The
		// is_valid flag turns false for cancelled orders.
		qrData := struct {
			ID       int    `json:"id"`
			PONumber string `json:"po_number"`
			IsValid  bool   `json:"is_valid"`
		}{
			ID:       id,
			PONumber: poNumber,
			IsValid:  status != models.POStatusCancelled,
		}

		jsonData, err := json.Marshal(qrData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal purchase order data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 5*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		expectedDateStr := "N/A"
		if expectedDate.Valid {
			expectedDateStr = expectedDate.Time.Format("2006-01-02")
		}

		supplierDisplay := supplierName.String
		if len(supplierDisplay) > 30 {
			supplierDisplay = supplierDisplay[:27] + "..."
		}

		addLabelBold(combinedImg, xPos, startY, "PO Number:")
		addLabel(combinedImg, xPos+130, startY, poNumber)

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Supplier:")
		addLabel(combinedImg, xPos+130, startY+lineHeight, supplierDisplay)

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Amount:")
		addLabel(combinedImg, xPos+130, startY+2*lineHeight, strconv.FormatFloat(totalAmount, 'f', 2, 64)+" "+currency)

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Expected:")
		addLabel(combinedImg, xPos+130, startY+3*lineHeight, expectedDateStr)

		addLabelBold(combinedImg, xPos, startY+4*lineHeight, "Status:")
		addLabel(combinedImg, xPos+130, startY+4*lineHeight, status)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
