//cmd/seeder/main.go
package main

import (
    "context"
    "os"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"

    "github.com/unclebandit/crm-campaign-backend/internal/cache"
    "github.com/unclebandit/crm-campaign-backend/internal/config"
    "github.com/unclebandit/crm-campaign-backend/internal/db"
)

var seedFiles = []string{
    "seed/crm_analysis.sql",
    "seed/crm_sales.sql",
    "seed/campaign_brand_filters.sql",
    "seed/template_details.sql",
    "seed/campaigns.sql",
}

func main() {
    if err := godotenv.Load(); err != nil {
        logrus.Warn("⚠️ No .env file found, relying on OS environment variables")
    }
    cfg, err := config.LoadConfig()
    if err != nil {
        logrus.WithError(err).Fatal("invalid configuration")
    }

    conn, err := db.Init(cfg.DBUrl, 1)
    if err != nil {
        logrus.Fatal(err)
    }
    defer conn.Close()

    if err := db.Migrate(conn, cfg.MigrationsPath); err != nil {
        logrus.WithError(err).Fatal("migration failed")
    }

    for _, file := range seedFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            logrus.Fatalf("failed to read %s: %v", file, err)
        }

        if _, err := conn.Exec(string(content)); err != nil {
            logrus.Fatalf("failed to execute %s: %v", file, err)
        }
        logrus.Infof("Seeded: %s", file)
    }

    // cached campaign options no longer match the seeded tables
    if cfg.RedisAddr != "" {
        oc, err := cache.NewOptionsCache(cfg.RedisAddr, cfg.OptionsCacheTTL())
        if err != nil {
            logrus.WithError(err).Warn("⚠️ could not reach redis to drop cached options")
        } else {
            if err := oc.Invalidate(context.Background()); err != nil {
                logrus.WithError(err).Warn("⚠️ failed to drop cached options")
            }
            oc.Close()
        }
    }

    logrus.Info("Database seeding completed successfully!")
}
