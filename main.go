// @title           Procurement API
// @version         1.0
// @description     Procurement & internal communications backend - requisitions, RFQs, quote evaluation, purchase orders, invoices and vendor management.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "backend/docs"
	"backend/handlers"
	"backend/models"
	"backend/services"
	"backend/storage"
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-XSRF-TOKEN",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "X-Session-Id",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

var cronRunning int32

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

// runQuoteExpiryJob moves overdue quotes to expired and recomputes the
// comparison metrics of the affected RFQs.
func runQuoteExpiryJob(ctx context.Context, db *sql.DB, quoteService *services.QuoteService, cronLogger *log.Logger) error {
	expired, err := storage.ExpireDueQuotes(db)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}
	log.Printf("Expired %d quotes: %v", len(expired), expired)
	if cronLogger != nil {
		cronLogger.Printf("Expired %d quotes: %v", len(expired), expired)
	}

	rows, err := db.Query(`
		SELECT DISTINCT rfq_id FROM quotes WHERE quote_number = ANY($1)`, pq.Array(expired))
	if err != nil {
		return err
	}
	defer rows.Close()

	var rfqIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		rfqIDs = append(rfqIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rfqID := range rfqIDs {
		if err := quoteService.CalculateComparisonMetrics(ctx, rfqID); err != nil {
			log.Printf("Comparison recalculation failed for RFQ %d: %v", rfqID, err)
			if cronLogger != nil {
				cronLogger.Printf("Comparison recalculation failed for RFQ %d: %v", rfqID, err)
			}
		}
	}
	return nil
}

// runInvoiceOverdueReminders emails suppliers about unpaid invoices past their
// due date.
func runInvoiceOverdueReminders(db *sql.DB, emailService *services.EmailService) error {
	rows, err := db.Query(`
		SELECT i.id, i.invoice_number, i.total_amount, i.total_paid, i.currency, i.due_date, i.status,
			v.email
		FROM invoices i
		JOIN vendors v ON i.supplier_id = v.id
		WHERE i.status NOT IN ($1, $2) AND i.due_date < NOW()`,
		models.InvoiceStatusPaid, models.InvoiceStatusCancelled)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.Invoice
		var supplierEmail string
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.TotalAmount, &inv.TotalPaid,
			&inv.Currency, &inv.DueDate, &inv.Status, &supplierEmail); err != nil {
			return err
		}
		if err := emailService.SendInvoiceReminderEmail(supplierEmail, &inv); err != nil {
			log.Printf("Failed to send overdue reminder for invoice %s: %v", inv.InvoiceNumber, err)
		}
	}
	return rows.Err()
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	emailService := services.NewEmailService(db, services.SMTPConfigFromEnv())
	commService := services.NewCommunicationService(db, emailService)
	quoteService := services.NewQuoteService(storage.NewQuoteSQLStore(db))

	// Setup cron: daily maintenance plus the minutely communication dispatcher
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 1 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")
		if cronLogger != nil {
			cronLogger.Println("Starting daily maintenance cron job")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "QuoteExpiryJob", func(ctx context.Context) error {
			return runQuoteExpiryJob(ctx, db, quoteService, cronLogger)
		}, cronLogger)

		safeGo(ctx, &wg, "InvoiceOverdueReminders", func(ctx context.Context) error {
			return runInvoiceOverdueReminders(db, emailService)
		}, cronLogger)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	_, err = c.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
		defer cancel()
		if err := commService.DispatchDue(ctx); err != nil {
			log.Printf("Communication dispatch failed: %v", err)
			if cronLogger != nil {
				cronLogger.Printf("Communication dispatch failed: %v", err)
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule communication dispatcher: %v", err)
	}

	c.Start()

	r := gin.Default()

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))
	r.GET("/api/me", handlers.MeHandler(db))

	// ==================== 2. REQUISITIONS & RFQS ====================
	r.POST("/api/requisitions", handlers.CreateRequisition(db))
	r.GET("/api/requisitions/:id", handlers.GetRequisition(db))
	r.PUT("/api/requisitions/:id/submit", handlers.SubmitRequisition(db))
	r.PUT("/api/requisitions/:id/approve", handlers.ApproveRequisition(db, emailService))
	r.PUT("/api/requisitions/:id/reject", handlers.RejectRequisition(db, emailService))
	r.POST("/api/requisitions/:id/rfq", handlers.CreateRFQ(db))
	r.PUT("/api/rfqs/:id/close", handlers.CloseRFQ(db))
	r.GET("/api/rfqs/:id/quotes", handlers.GetQuotesByRFQ(db))
	r.POST("/api/rfqs/:id/comparison/recalculate", handlers.RecalculateComparison(quoteService))
	r.GET("/api/rfqs/:id/comparison/export", handlers.ExportQuoteComparisonXLSX(db))
	r.GET("/api/rfqs/:id/quotes/export", handlers.ExportQuotesCSV)

	// ==================== 3. QUOTES ====================
	r.POST("/api/quotes", handlers.SubmitQuote(db))
	r.GET("/api/quotes/:id", handlers.GetQuote(db))
	r.PUT("/api/quotes/:id/review", handlers.StartQuoteReview(db))
	r.PUT("/api/quotes/:id/clarification/request", handlers.RequestQuoteClarification(db))
	r.PUT("/api/quotes/:id/clarification/receive", handlers.ReceiveQuoteClarification(db))
	r.PUT("/api/quotes/:id/review/resume", handlers.ResumeQuoteReview(db))
	r.PUT("/api/quotes/:id/evaluate", handlers.EvaluateQuote(db, quoteService))
	r.PUT("/api/quotes/:id/select", handlers.SelectQuote(db, emailService))
	r.PUT("/api/quotes/:id/reject", handlers.RejectQuote(db, emailService))

	// ==================== 4. PURCHASE ORDERS ====================
	r.GET("/api/purchase-orders", handlers.GetPurchaseOrders(db))
	r.GET("/api/purchase-orders/export", handlers.ExportPurchaseOrdersCSV)
	r.GET("/api/purchase-orders/:id", handlers.GetPurchaseOrder(db))
	r.PUT("/api/purchase-orders/:id/issue", handlers.IssuePurchaseOrder(db))
	r.PUT("/api/purchase-orders/:id/acknowledge", handlers.AcknowledgePurchaseOrder(db))
	r.PUT("/api/purchase-orders/:id/cancel", handlers.CancelPurchaseOrder(db))
	r.PUT("/api/purchase-orders/:id/close", handlers.ClosePurchaseOrder(db))
	r.GET("/api/purchase-orders/:id/pdf", handlers.GeneratePurchaseOrderPDF(db))
	r.GET("/api/purchase-orders/:id/qr", handlers.GeneratePOQRCodeJPEG(db))
	r.GET("/api/purchase-orders/:id/deliveries", handlers.GetDeliveriesByPO(gormDB))

	// ==================== 5. DELIVERIES ====================
	r.POST("/api/deliveries", handlers.CreateDelivery(db, gormDB))
	r.PUT("/api/deliveries/:id/transit", handlers.MarkDeliveryInTransit(gormDB))
	r.PUT("/api/deliveries/:id/receive", handlers.ReceiveDelivery(db, gormDB))
	r.PUT("/api/deliveries/:id/inspect", handlers.InspectDelivery(gormDB))

	// ==================== 6. VENDORS ====================
	r.POST("/api/vendors", handlers.CreateVendor(db))
	r.GET("/api/vendors", handlers.GetVendors(db))
	r.GET("/api/vendors/:id", handlers.GetVendor(db))
	r.PUT("/api/vendors/:id", handlers.UpdateVendor(db))
	r.PUT("/api/vendors/:id/approve", handlers.ApproveVendor(db))
	r.PUT("/api/vendors/:id/reject", handlers.RejectVendor(db))
	r.PUT("/api/vendors/:id/suspend", handlers.SuspendVendor(db))
	r.PUT("/api/vendors/:id/blacklist", handlers.BlacklistVendor(db))
	r.GET("/api/vendors/:id/performance", handlers.GetVendorPerformance(db))

	// ==================== 7. INVOICES ====================
	r.POST("/api/invoices", handlers.CreateInvoice(db))
	r.GET("/api/invoices/:id", handlers.GetInvoice(db))
	r.PUT("/api/invoices/:id/submit", handlers.SubmitInvoice(db))
	r.PUT("/api/invoices/:id/approve", handlers.ApproveInvoice(db))
	r.PUT("/api/invoices/:id/dispute", handlers.DisputeInvoice(db))
	r.PUT("/api/invoices/:id/resolve", handlers.ResolveInvoiceDispute(db))
	r.PUT("/api/invoices/:id/cancel", handlers.CancelInvoice(db))
	r.POST("/api/invoices/:id/payments", handlers.RecordInvoicePayment(db))

	// ==================== 8. COMMUNICATIONS ====================
	r.POST("/api/communications", handlers.CreateCommunication(db))
	r.GET("/api/communications", handlers.GetCommunications(db))
	r.PUT("/api/communications/:id/schedule", handlers.ScheduleCommunication(db))
	r.PUT("/api/communications/:id/unschedule", handlers.UnscheduleCommunication(db))
	r.POST("/api/communications/:id/send", handlers.SendCommunicationNow(db, commService))
	r.GET("/api/communications/:id/deliveries", handlers.GetCommunicationDeliveries(db))

	// ==================== 9. NOTIFICATIONS ====================
	r.GET("/api/notifications", handlers.GetNotifications(db))
	r.PUT("/api/notifications/:id/read", handlers.MarkNotificationRead(db))
	r.PUT("/api/notifications/read-all", handlers.MarkAllNotificationsRead(db))

	// ==================== 10. EMAIL TEMPLATES ====================
	r.GET("/api/email-templates", handlers.GetEmailTemplates(db))
	r.GET("/api/email-templates/variables", handlers.GetTemplateVariables(emailService))
	r.GET("/api/email-templates/:id", handlers.GetEmailTemplate(db))
	r.POST("/api/email-templates/preview", handlers.PreviewEmailTemplate(emailService))

	// Template mutations are admin-only.
	templateAdmin := r.Group("/api/email-templates", handlers.SessionMiddleware(db), handlers.AdminOnly())
	templateAdmin.POST("", handlers.CreateEmailTemplate(db, emailService))
	templateAdmin.PUT("/:id", handlers.UpdateEmailTemplate(db, emailService))
	templateAdmin.DELETE("/:id", handlers.DeleteEmailTemplate(db))

	// ==================== 11. ACTIVITY LOGS ====================
	r.GET("/api/activity-logs", handlers.SessionMiddleware(db), handlers.AdminOnly(), handlers.GetActivityLogsHandler(db))

	// ==================== 12. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(20 * time.Second):
		log.Println("Warning: cron jobs did not finish before shutdown timeout")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
