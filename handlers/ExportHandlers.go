package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportQuoteComparisonXLSX godoc
// @Summary      Export RFQ quote comparison as Excel
// @Tags         export
// @Param        id   path  int  true  "RFQ ID"
// @Success      200  {file}  file  "Excel file"
// @Failure      400  {object}  object
// @Router       /api/rfqs/{id}/comparison/export [get]
func ExportQuoteComparisonXLSX(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfqID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFQ ID"})
			return
		}

		var rfqNumber string
		if err := db.QueryRow(`SELECT rfq_number FROM rfqs WHERE id = $1`, rfqID).Scan(&rfqNumber); err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "RFQ not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		store := storage.NewQuoteSQLStore(db)
		quotes, err := store.GetQuotesForComparison(c.Request.Context(), rfqID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching quotes", "details": err.Error()})
			return
		}

		supplierNames := map[int]string{}
		nameRows, err := db.Query(`
			SELECT v.id, v.name FROM vendors v
			JOIN quotes q ON q.supplier_id = v.id
			WHERE q.rfq_id = $1`, rfqID)
		if err == nil {
			defer nameRows.Close()
			for nameRows.Next() {
				var id int
				var name string
				if nameRows.Scan(&id, &name) == nil {
					supplierNames[id] = name
				}
			}
		}

		f := excelize.NewFile()
		sheet := "Comparison"
		f.SetSheetName("Sheet1", sheet)

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating style"})
			return
		}

		headers := []string{
			"Quote Number", "Supplier", "Total Amount", "Currency",
			"Delivery Time", "Total Score", "Price Rank", "Delivery Rank",
			"Quality Rank", "Overall Rank", "Price Var From Avg (%)",
			"Delivery Var From Avg (%)", "Status",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)

		for rowIdx, q := range quotes {
			row := rowIdx + 2
			supplierName := supplierNames[q.SupplierID]
			if supplierName == "" {
				supplierName = strconv.Itoa(q.SupplierID)
			}

			deliveryStr := "N/A"
			if q.DeliveryTime != nil && q.DeliveryTime.Value != 0 {
				deliveryStr = fmt.Sprintf("%.0f %s", q.DeliveryTime.Value, q.DeliveryTime.Unit)
			}

			totalScore := 0.0
			if q.Evaluation != nil {
				totalScore = q.Evaluation.TotalScore
			}

			values := []interface{}{
				q.QuoteNumber, supplierName, q.TotalAmount, q.Currency,
				deliveryStr, totalScore,
			}
			if q.Comparison != nil {
				values = append(values,
					q.Comparison.PriceRank, q.Comparison.DeliveryRank,
					q.Comparison.QualityRank, q.Comparison.OverallRank,
					q.Comparison.PriceVarianceFromAverage,
					q.Comparison.DeliveryVarianceFromAverage)
			} else {
				values = append(values, "", "", "", "", "", "")
			}
			values = append(values, q.Status)

			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}

		f.SetColWidth(sheet, "A", "B", 22)
		f.SetColWidth(sheet, "C", "M", 14)

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s_comparison.xlsx", rfqNumber))
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing Excel file"})
			return
		}
	}
}

// ExportQuotesCSV godoc
// @Summary      Export RFQ quotes as CSV
// @Tags         export
// @Produce      text/csv
// @Param        id   path  int  true  "RFQ ID"
// @Success      200  {file}  file  "CSV file"
// @Failure      400  {object}  object
// @Router       /api/rfqs/{id}/quotes/export [get]
func ExportQuotesCSV(c *gin.Context) {
	db := storage.GetDB()

	rfqID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFQ ID"})
		return
	}

	var rfqNumber string
	if err := db.QueryRow(`SELECT rfq_number FROM rfqs WHERE id = $1`, rfqID).Scan(&rfqNumber); err != nil {
		rfqNumber = "rfq"
	}

	quotes, err := storage.GetQuotesByRFQ(db, rfqID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching quotes", "details": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s_quotes.csv", rfqNumber))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{
		"QuoteNumber", "SupplierID", "TotalAmount", "Currency",
		"PaymentTerms", "DeliveryTerms", "DeliveryTime", "ValidUntil",
		"Status", "TotalScore",
	}
	if err := writer.Write(header); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
		return
	}

	for _, q := range quotes {
		deliveryStr := ""
		if q.DeliveryTime != nil && q.DeliveryTime.Value != 0 {
			deliveryStr = fmt.Sprintf("%.0f %s", q.DeliveryTime.Value, q.DeliveryTime.Unit)
		}
		scoreStr := ""
		if q.Evaluation != nil {
			scoreStr = strconv.FormatFloat(q.Evaluation.TotalScore, 'f', 2, 64)
		}

		row := []string{
			q.QuoteNumber,
			strconv.Itoa(q.SupplierID),
			strconv.FormatFloat(q.TotalAmount, 'f', 2, 64),
			q.Currency,
			q.PaymentTerms,
			q.DeliveryTerms,
			deliveryStr,
			q.ValidUntil.Format("2006-01-02"),
			q.Status,
			scoreStr,
		}
		if err := writer.Write(row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
			return
		}
	}
}

// ExportPurchaseOrdersCSV godoc
// @Summary      Export purchase orders as CSV
// @Tags         export
// @Produce      text/csv
// @Param        status       query  string  false  "Filter by status"
// @Param        supplier_id  query  int     false  "Filter by supplier"
// @Success      200  {file}  file  "CSV file"
// @Router       /api/purchase-orders/export [get]
func ExportPurchaseOrdersCSV(c *gin.Context) {
	db := storage.GetDB()

	query := `
		SELECT po.po_number, po.supplier_id, v.name, po.total_amount, po.currency,
		       po.status, po.created_at, po.expected_date
		FROM purchase_orders po
		LEFT JOIN vendors v ON v.id = po.supplier_id
		WHERE 1=1`
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND po.status = $%d", len(args))
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		args = append(args, supplierID)
		query += fmt.Sprintf(" AND po.supplier_id = $%d", len(args))
	}
	query += " ORDER BY po.created_at, po.id"

	rows, err := db.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching purchase orders", "details": err.Error()})
		return
	}
	defer rows.Close()

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=purchase_orders.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{
		"PONumber", "SupplierID", "SupplierName", "TotalAmount", "Currency",
		"Status", "CreatedAt", "ExpectedDate",
	}
	if err := writer.Write(header); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
		return
	}

	for rows.Next() {
		var poNumber, currency, status string
		var supplierID int
		var supplierName sql.NullString
		var totalAmount float64
		var createdAt time.Time
		var expectedDate sql.NullTime

		if err := rows.Scan(&poNumber, &supplierID, &supplierName, &totalAmount,
			&currency, &status, &createdAt, &expectedDate); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning purchase order", "details": err.Error()})
			return
		}

		expectedStr := ""
		if expectedDate.Valid {
			expectedStr = expectedDate.Time.Format("2006-01-02")
		}

		row := []string{
			poNumber,
			strconv.Itoa(supplierID),
			supplierName.String,
			strconv.FormatFloat(totalAmount, 'f', 2, 64),
			currency,
			status,
			createdAt.Format("2006-01-02"),
			expectedStr,
		}
		if err := writer.Write(row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
			return
		}
	}
}
