package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restoran-pos/internal/admin"
	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/config"
	"restoran-pos/internal/database"
	"restoran-pos/internal/events"
	"restoran-pos/internal/logger"
	"restoran-pos/internal/metrics"
	"restoran-pos/internal/models"
	"restoran-pos/internal/orders"
	"restoran-pos/internal/redisx"
	"restoran-pos/internal/shift"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config yüklenemedi")
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("veritabanı başlatılamadı")
	}

	var (
		shiftStore shift.Store
		orderStore orders.Store
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.WithError(err).Fatal("mongo başlatılamadı")
		}
		defer mdb.Client().Disconnect(context.Background())
		shiftStore = shift.NewMongoStore(mdb)
		orderStore = orders.NewMongoStore(mdb)
	default:
		shiftStore = shift.NewGormStore(db)
		orderStore = orders.NewGormStore(db)
	}
	log.WithField("store", cfg.StoreDriver).Info("vardiya/sipariş deposu hazır")

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ServiceName, 256, log)
		defer kp.Close()
		publisher = kp
		log.WithField("brokers", cfg.KafkaBrokers).Info("kafka event yayını açık")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		publisher = m.Publisher(publisher)
	}

	recorder := audit.NewGormRecorder(db)
	branches := admin.NewBranchDirectory(db)
	register := shift.NewRegister(shiftStore, recorder, publisher, log, loc)
	orderSvc := orders.NewService(orderStore, register, branches, recorder, publisher, log)

	if cfg.RedisAddr != "" {
		rdb, err := redisx.New(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("redis'e bağlanılamadı, idempotency kapalı")
		} else {
			defer rdb.Close()
			orderSvc.WithIdempotency(redisx.NewOrderIdempotency(rdb))
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.Locals("requestid"),
			}).Error("beklenmeyen hata")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: log.Writer(),
	}))

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + orders.HeaderIdempotencyKey,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	if m != nil {
		app.Use(m.Middleware())
		app.Get("/metrics", m.Handler())
	}
	app.Get("/healthz", healthHandler(db))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(db))
	api.Post("/auth/login", auth.LoginLimiter(cfg.LoginRateLimit, time.Minute), auth.LoginHandler(db, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))

	managers := auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin)

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler(db))
	adminRoutes.Get("/branches", admin.ListBranchesHandler(db))
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler(db))
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler(db, branches))
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler(db))
	adminRoutes.Post("/branches/:id/users", admin.CreateBranchUserHandler(db))
	adminRoutes.Get("/branches/:id/users", admin.ListBranchUsersHandler(db))

	// Vardiya ve gün sonu
	protected.Post("/shift/start", shift.StartShiftHandler(register))
	protected.Post("/shift/close", shift.CloseShiftHandler(register))
	protected.Get("/shift/current", shift.CurrentShiftHandler(register))
	protected.Get("/shift", shift.ListShiftsHandler(register))
	protected.Post("/shift/day-close", managers, shift.DayCloseHandler(register))
	protected.Get("/shift/day-close/status", shift.DayCloseStatusHandler(register))
	protected.Get("/shift/day-close/export", managers, shift.DayCloseExportHandler(register))

	// Siparişler
	protected.Post("/orders", orders.CreateOrderHandler(orderSvc))
	protected.Get("/orders", orders.ListOrdersHandler(orderSvc))
	protected.Get("/orders/summary/daily", orders.DailySummaryHandler(orderSvc, register.BusinessDate))
	protected.Get("/orders/:id", orders.GetOrderHandler(orderSvc))
	protected.Put("/orders/:id/payments", orders.UpdatePaymentsHandler(orderSvc))
	protected.Post("/orders/:id/cancel", managers, orders.CancelOrderHandler(orderSvc))
	protected.Post("/orders/:id/hold", orders.HoldOrderHandler(orderSvc, true))
	protected.Post("/orders/:id/unhold", orders.HoldOrderHandler(orderSvc, false))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Server çalışıyor")
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.WithError(err).Error("server durdu")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("kapatılıyor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("server düzgün kapatılamadı")
	}
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
