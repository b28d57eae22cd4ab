package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"ATMS-backend/internal/client/api"
	"ATMS-backend/internal/client/camera"
	"ATMS-backend/internal/client/geoloc"
	"ATMS-backend/internal/client/imaging"
	"ATMS-backend/internal/client/submit"
	"ATMS-backend/internal/platform/logging"
)

// attend performs one attendance submission from a kiosk terminal:
// login, selfie capture, position fix, upload.
func main() {
	configPath := flag.String("config", "config/attend.yaml", "client config file")
	flag.Parse()

	viper.SetConfigFile(*configPath)
	viper.SetConfigType("yaml")
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("image.max_bytes", imaging.DefaultMaxBytes)
	viper.SetDefault("image.max_width", imaging.DefaultMaxWidth)
	viper.SetDefault("image.max_height", imaging.DefaultMaxHeight)
	viper.SetDefault("log.level", "info")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("Fail to read config file :", err)
	}

	if err := logging.Init(viper.GetString("log.level"), viper.GetString("log.file")); err != nil {
		log.Fatal("Fail to init logger :", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	client := api.New(
		viper.GetString("server.base_url"),
		time.Duration(viper.GetInt("server.timeout_seconds"))*time.Second,
	)

	session, err := client.Login(ctx, viper.GetString("auth.email"), viper.GetString("auth.password"))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.WithFields(log.Fields{"user": session.Name, "role": session.Role}).Info("logged in")

	cam := camera.NewController(&camera.ExecDevice{
		Path: viper.GetString("camera.command"),
		Args: viper.GetStringSlice("camera.args"),
	})

	var locator geoloc.Provider
	if cmd := viper.GetString("location.command"); cmd != "" {
		locator = geoloc.Command{
			Path:    cmd,
			Args:    viper.GetStringSlice("location.args"),
			Timeout: 15 * time.Second,
		}
	} else {
		locator = geoloc.Static{
			Latitude:  viper.GetFloat64("location.latitude"),
			Longitude: viper.GetFloat64("location.longitude"),
		}
	}

	opts := imaging.Options{
		MaxBytes:  viper.GetInt("image.max_bytes"),
		MaxWidth:  viper.GetInt("image.max_width"),
		MaxHeight: viper.GetInt("image.max_height"),
	}

	o := submit.New(cam, locator, client, session, opts, log.WithField("component", "submit"))
	defer o.Cancel()

	kind, err := o.RefreshToggle(ctx)
	if err != nil {
		return err
	}
	log.Info("next event kind: ", kind)

	if err := o.Start(ctx); err != nil {
		return err
	}
	if err := o.Capture(ctx); err != nil {
		return err
	}
	if err := o.AcquireLocation(ctx); err != nil {
		return err
	}

	res, err := o.Submit(ctx)
	if err != nil {
		// No automatic retry; the operator decides whether to re-run.
		return fmt.Errorf("submission failed: %w", err)
	}

	log.WithFields(log.Fields{
		"event_id":    res.EventID,
		"type":        res.Type,
		"in_office":   res.IsInOffice,
		"distance_m":  fmt.Sprintf("%.1f", res.DistanceMeters),
	}).Info("attendance marked")
	return nil
}
