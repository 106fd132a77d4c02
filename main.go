package main

import (
	"context"
	"log"
	"time"

	"parkingreserve/config"
	"parkingreserve/database"
	"parkingreserve/handlers"
	"parkingreserve/routes"
	"parkingreserve/services"
	"parkingreserve/utils"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	// 初始化 JWTSecret
	utils.InitJWTSecret(cfg.JWTSecret, cfg.JWTExpiration)

	// 初始化資料庫
	database.InitDB(database.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: time.Hour,
		Release:         cfg.GinMode == gin.ReleaseMode,
	})

	// 執行資料庫遷移
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("%v", err)
	}

	// 建立預設車位 A-01 ~ A-10
	if err := database.SeedSlots(database.DB, database.DefaultSlotCount); err != nil {
		log.Fatalf("%v", err)
	}

	gin.SetMode(cfg.GinMode)
	log.Printf("Gin mode set to %s", cfg.GinMode)

	userService := services.NewUserService(database.DB, cfg.DBTxTimeout)
	slotService := services.NewSlotService(database.DB, cfg.DBTxTimeout)
	reservationService := services.NewReservationService(database.DB, cfg.DBTxTimeout)
	auditService := services.NewAuditService(database.DB, cfg.DBTxTimeout)

	r := routes.NewRouter(routes.Handlers{
		Members:      handlers.NewMemberHandler(userService),
		Slots:        handlers.NewSlotHandler(slotService),
		Reservations: handlers.NewReservationHandler(reservationService),
	})

	// 啟動時先稽核一次，之後依排程執行
	if _, err := auditService.Run(context.Background(), cfg.AuditRepair); err != nil {
		log.Printf("Initial slot audit failed: %v", err)
	}

	if cfg.AuditSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.AuditSchedule, func() {
			log.Println("Auditing parking slot availability...")
			if _, err := auditService.Run(context.Background(), cfg.AuditRepair); err != nil {
				log.Printf("Failed to audit parking slots: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule slot audit cron job: %v", err)
		}
		c.Start()
		defer c.Stop()
		log.Printf("Slot audit scheduled: %s (repair=%t)", cfg.AuditSchedule, cfg.AuditRepair)
	}

	// 啟動伺服器
	log.Printf("Starting server on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
