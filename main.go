package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"steam-buff-tracker/internal/catalog"
	"steam-buff-tracker/internal/config"
	"steam-buff-tracker/internal/database"
	"steam-buff-tracker/internal/export"
	"steam-buff-tracker/internal/pipeline"
	"steam-buff-tracker/internal/services/buff"
	"steam-buff-tracker/internal/services/conversion"
	"steam-buff-tracker/internal/services/steam"
	"steam-buff-tracker/internal/transport"

	"github.com/joho/godotenv"
)

var interval = flag.Duration("interval", 0, "重复运行间隔，0 表示只运行一次")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("❌ 运行失败: %v", err)
	}
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 收到关闭信号，退出")
			return
		case <-ticker.C:
			if err := run(ctx, cfg); err != nil {
				log.Fatalf("❌ 运行失败: %v", err)
			}
		}
	}
}

// run 执行一次完整流程：抓取 -> 对账 -> 合并 -> 保存
func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger("update")

	client, err := transport.Configure(transport.Options{
		ProxyURL:     cfg.ProxyURL,
		DisableProxy: cfg.DisableProxy,
		Timeout:      cfg.RequestTimeout,
		Logger:       cfg.Logger("proxy"),
	})
	if err != nil {
		return err
	}

	items, err := config.LoadItems(cfg.ItemsPath)
	if err != nil {
		return err
	}

	pool := buff.NewCredentialPool(cfg.BuffCookies)
	if pool.Size() == 0 {
		log.Println("⚠️  未配置 BUFF_COOKIE，BUFF 请求将不带凭证")
	}

	tracker := pipeline.NewTracker(
		steam.NewScraper(client, cfg.Logger("SteamScraper")),
		conversion.NewResolver(client, cfg.ConversionURL, cfg.Logger("Conversion")),
		pipeline.NewReconciler(
			buff.NewClient(client, pool, cfg.BuffBaseURL, cfg.Logger("BUFF")),
			pool.Size(),
			cfg.Logger("Reconciler"),
		),
		logger,
	)

	result, err := tracker.Run(ctx, items)
	if err != nil {
		// interrupted runs are not merged
		return fmt.Errorf("运行中断: %w", err)
	}

	store := catalog.NewStore(cfg.DataPath)
	entries, err := store.Load()
	if err != nil {
		return err
	}
	merged := catalog.Merge(entries, result.Records)
	if err := store.Save(merged); err != nil {
		return err
	}
	log.Printf("[update] %s items=%d records=%d skipped=%d", time.Now().UTC().Format(time.RFC3339), len(merged), len(result.Records), len(result.Skips))

	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️  数据库镜像跳过: %v", err)
		} else {
			n, err := database.SaveSnapshots(db, result.Records)
			if err != nil {
				log.Printf("⚠️  %v", err)
			} else {
				logger.Printf("已写入 %d 条快照到数据库", n)
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}

	if cfg.ExportXLSX != "" {
		if err := export.ExportCatalog(merged, cfg.ExportXLSX); err != nil {
			log.Printf("⚠️  导出Excel失败: %v", err)
		} else {
			logger.Printf("已导出 %s", cfg.ExportXLSX)
		}
	}

	for _, s := range result.Skips {
		logger.Printf("跳过 #%d %s: %s %s", s.Index+1, s.Name, s.Reason, s.Detail)
	}
	return nil
}
