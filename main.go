package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"ATMS-backend/internal/attendance"
	"ATMS-backend/internal/blob"
	"ATMS-backend/internal/geofence"
	"ATMS-backend/internal/holiday"
	"ATMS-backend/internal/leave"
	"ATMS-backend/internal/platform/auth"
	"ATMS-backend/internal/platform/db"
	"ATMS-backend/internal/platform/logging"
	"ATMS-backend/internal/platform/mail"
	"ATMS-backend/internal/users"
)

func main() {
	// .env first so config env overrides are in place.
	_ = godotenv.Load()

	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	if err := logging.Init(cfg.LogLevel, ""); err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Infof("mode: %s", mode)
	if mode != "dev" && mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt secret is not configured")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	log.Infof("connected to DB: %s", cfg.DB.DBName)

	blobs, err := blob.NewDirStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal(err)
	}

	fence := geofence.Config{
		Office: geofence.Point{
			Latitude:  cfg.Office.Latitude,
			Longitude: cfg.Office.Longitude,
		},
		RadiusMeters: cfg.Office.RadiusMeters,
	}

	var mailer mail.Sender = mail.Noop{}
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPSender(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	authSvc := auth.NewService(conn, []byte(cfg.JWT.Secret), time.Duration(cfg.JWT.TTLHours)*time.Hour)
	usersSvc := users.NewService(conn)
	attSvc := attendance.NewService(conn, blobs, fence)
	leaveSvc := leave.NewService(conn, mailer)
	holidaySvc := holiday.NewService(conn)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := usersSvc.EnsureAdmin(seedCtx, cfg.AdminSeed.Name, cfg.AdminSeed.Email, cfg.AdminSeed.Password); err != nil {
		log.Warnf("admin seed failed: %v", err)
	}
	cancelSeed()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS is only needed while the web dashboard runs off a dev server.
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)
	users.RegisterPublicRoutes(api, usersSvc)

	authed := api.Group("", auth.RequireAuth([]byte(cfg.JWT.Secret)))
	admin := authed.Group("", auth.RequireRole(users.RoleAdmin))

	attendance.RegisterRoutes(authed, admin, attSvc)
	users.RegisterRoutes(authed, admin, usersSvc)
	leave.RegisterRoutes(authed, admin, leaveSvc)
	holiday.RegisterRoutes(authed, admin, holidaySvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Infof("listening on https://%s", cfg.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Infof("listening on http://%s", cfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
