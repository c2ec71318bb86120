package handlers

import (
	"backend/models"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateDelivery registers an expected delivery against an acknowledged
// purchase order.
// @Summary Create delivery
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param body body models.Delivery true "Delivery data"
// @Success 201 {object} models.Delivery
// @Failure 400 {object} models.ErrorResponse
// @Router /api/deliveries [post]
func CreateDelivery(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if _, _, err := GetSessionDetails(db, sessionID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var delivery models.Delivery
		if err := c.ShouldBindJSON(&delivery); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var poStatus string
		err := db.QueryRow(`SELECT status FROM purchase_orders WHERE id = $1`, delivery.PurchaseOrderID).Scan(&poStatus)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Purchase order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if poStatus != models.POStatusAcknowledged && poStatus != models.POStatusPartiallyDelivered {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Purchase order not ready for deliveries",
				"details": "purchase order status is " + poStatus,
			})
			return
		}

		delivery.Status = models.DeliveryStatusPending
		delivery.ReceivedDate = nil
		delivery.ReceivedBy = nil
		delivery.CreatedAt = time.Now()
		delivery.UpdatedAt = time.Now()

		if err := gormDB.Create(&delivery).Error; err != nil {
			log.Printf("Error creating delivery: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create delivery", "details": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, delivery)
	}
}

// GetDeliveriesByPO lists deliveries for a purchase order.
// @Summary List deliveries for a purchase order
// @Tags Deliveries
// @Produce json
// @Param id path int true "Purchase order ID"
// @Success 200 {array} models.Delivery
// @Router /api/purchase-orders/{id}/deliveries [get]
func GetDeliveriesByPO(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase order ID"})
			return
		}

		var deliveries []models.Delivery
		if err := gormDB.Preload("Lines").
			Where("purchase_order_id = ?", poID).
			Order("created_at").
			Find(&deliveries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, deliveries)
	}
}

// MarkDeliveryInTransit marks a pending delivery as shipped.
// @Summary Mark delivery in transit
// @Tags Deliveries
// @Param id path int true "Delivery ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/deliveries/{id}/transit [put]
func MarkDeliveryInTransit(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		transitionDelivery(gormDB, c, models.DeliveryStatusInTransit, nil)
	}
}

// InspectDelivery marks a received delivery as inspected.
// @Summary Inspect delivery
// @Tags Deliveries
// @Param id path int true "Delivery ID"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/deliveries/{id}/inspect [put]
func InspectDelivery(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ConditionNotes string `json:"condition_notes"`
		}
		_ = c.ShouldBindJSON(&body)
		updates := map[string]interface{}{}
		if body.ConditionNotes != "" {
			updates["condition_notes"] = body.ConditionNotes
		}
		transitionDelivery(gormDB, c, models.DeliveryStatusInspected, updates)
	}
}

func transitionDelivery(gormDB *gorm.DB, c *gin.Context, to string, extra map[string]interface{}) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery ID"})
		return
	}

	var delivery models.Delivery
	if err := gormDB.First(&delivery, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !models.CanTransitionDelivery(delivery.Status, to) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": "cannot move delivery from " + delivery.Status + " to " + to,
		})
		return
	}

	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		updates[k] = v
	}
	if err := gormDB.Model(&delivery).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery moved to " + to})
}

// ReceiveDeliveryRequest records the quantities that arrived per purchase
// order line.
type ReceiveDeliveryRequest struct {
	Lines []struct {
		POLineID    int     `json:"po_line_id" binding:"required"`
		Description string  `json:"description"`
		ReceivedQty float64 `json:"received_qty"`
	} `json:"lines" binding:"required"`
	ConditionNotes string `json:"condition_notes"`
}

// ReceiveDelivery records received quantities, updates the purchase order
// lines and advances the order to partially_delivered or delivered.
// @Summary Receive delivery
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param id path int true "Delivery ID"
// @Param body body ReceiveDeliveryRequest true "Received lines"
// @Success 200 {object} models.Delivery
// @Failure 409 {object} models.ErrorResponse
// @Router /api/deliveries/{id}/receive [put]
func ReceiveDelivery(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery ID"})
			return
		}

		var req ReceiveDeliveryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(req.Lines) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one received line is required"})
			return
		}

		var delivery models.Delivery
		if err := gormDB.First(&delivery, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if !models.CanTransitionDelivery(delivery.Status, models.DeliveryStatusReceived) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid status transition",
				"details": "cannot receive a delivery in status " + delivery.Status,
			})
			return
		}

		now := time.Now()
		err = gormDB.Transaction(func(tx *gorm.DB) error {
			for _, l := range req.Lines {
				line := models.DeliveryLine{
					DeliveryID:  delivery.ID,
					POLineID:    l.POLineID,
					Description: l.Description,
					ReceivedQty: l.ReceivedQty,
				}
				if err := tx.Create(&line).Error; err != nil {
					return err
				}
			}
			return tx.Model(&delivery).Updates(map[string]interface{}{
				"status":          models.DeliveryStatusReceived,
				"received_date":   now,
				"received_by":     session.UserID,
				"condition_notes": req.ConditionNotes,
				"updated_at":      now,
			}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record delivery", "details": err.Error()})
			return
		}

		for _, l := range req.Lines {
			if _, err := db.Exec(`
				UPDATE purchase_order_line_items
				SET received_qty = received_qty + $1
				WHERE id = $2 AND purchase_order_id = $3`,
				l.ReceivedQty, l.POLineID, delivery.PurchaseOrderID); err != nil {
				log.Printf("Failed to update purchase order line %d: %v", l.POLineID, err)
			}
		}

		if err := advancePOAfterDelivery(db, delivery.PurchaseOrderID); err != nil {
			log.Printf("Failed to advance purchase order %d: %v", delivery.PurchaseOrderID, err)
		}

		if err := gormDB.Preload("Lines").First(&delivery, id).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, delivery)

		logEntry := models.ActivityLog{
			EventContext: "Delivery",
			EventName:    "Receive",
			Description:  "Delivery received for purchase order " + strconv.Itoa(delivery.PurchaseOrderID),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			EntityID:     strconv.Itoa(int(delivery.ID)),
			CreatedAt:    time.Now(),
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log delivery receipt: %v", logErr)
		}
	}
}

// advancePOAfterDelivery moves the purchase order to partially_delivered or
// delivered depending on how much of the ordered quantity has arrived.
func advancePOAfterDelivery(db *sql.DB, poID int) error {
	po, err := fetchPurchaseOrder(db, poID)
	if err != nil {
		return err
	}

	received, ordered := po.DeliveryProgress()
	target := models.POStatusPartiallyDelivered
	if ordered > 0 && received >= ordered {
		target = models.POStatusDelivered
	}
	if !models.CanTransitionPO(po.Status, target) {
		return nil
	}

	_, err = db.Exec(`UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2`, target, poID)
	return err
}
