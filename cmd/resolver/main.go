package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CultureBotAI/CultureMech-sub001/internal/api"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/cache"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/dictionary"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/mapping"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/ontology"
	"github.com/CultureBotAI/CultureMech-sub001/internal/core/resolver"
	"github.com/CultureBotAI/CultureMech-sub001/internal/infrastructure/config"
	"github.com/CultureBotAI/CultureMech-sub001/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 命令行參數；優先序高於環境變量與預設值
	pflag.String("input", "", "成分名清單 TSV 路徑")
	pflag.String("output", "", "映射表輸出路徑")
	pflag.Bool("force", false, "重新解析已映射的項目")
	pflag.Bool("refresh-cache", false, "跳過快取讀取，重新查詢本體服務")
	pflag.Duration("rate-limit", 0, "本體服務請求最小間隔")
	pflag.Int("workers", 0, "併發 worker 數")
	pflag.Bool("verbose", false, "輸出除錯日誌")
	pflag.Bool("serve", false, "以 HTTP 服務模式啟動")
	pflag.Int("port", 0, "HTTP 服務埠")
	pflag.Parse()

	bindFlag("resolver.input_path", "input")
	bindFlag("resolver.output_path", "output")
	bindFlag("resolver.force", "force")
	bindFlag("resolver.refresh_cache", "refresh-cache")
	bindFlag("ontology.min_interval", "rate-limit")
	bindFlag("resolver.workers", "workers")
	bindFlag("server.port", "port")

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if v, _ := pflag.CommandLine.GetBool("verbose"); v {
		logLevel = "debug"
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("啟動應用",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.Bool("debug", cfg.App.Debug),
	)

	// 載入字典；缺失是配置錯誤，直接中止
	dict, err := dictionary.Load(cfg.Resolver.DictionaryDir)
	if err != nil {
		common.LogFatal("Failed to load dictionaries", zap.Error(err))
	}

	// 初始化查詢快取
	store, err := cache.New(&cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize lookup cache", zap.Error(err))
	}
	defer store.Close()

	// 組裝解析管線
	client := ontology.NewClient(&cfg.Ontology)
	searcher := ontology.NewSearcher(client, store, cfg.Resolver.RefreshCache)
	res := resolver.New(dict, searcher, cfg.Resolver.Workers)

	serve, _ := pflag.CommandLine.GetBool("serve")
	if serve {
		runServer(cfg, dict, res, store)
		return
	}
	if err := runBatch(cfg, res); err != nil {
		common.LogError("解析執行失敗", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

// bindFlag 把命令行參數綁進設定鍵；未提供時不覆蓋既有來源
func bindFlag(key, flag string) {
	if f := pflag.CommandLine.Lookup(flag); f != nil && f.Changed {
		viper.BindPFlag(key, f)
	}
}

// runBatch 批次模式：讀入名稱清單，解析後與既有輸出合併寫回。
// 未映射項目不影響結束碼，只有配置或 IO 層失敗才算錯誤。
func runBatch(cfg *config.Config, res *resolver.Resolver) error {
	names, err := resolver.ReadNames(cfg.Resolver.InputPath)
	if err != nil {
		return err
	}

	// 既有輸出表：非 force 模式下已映射的項目跳過重新解析
	existing, err := mapping.ReadFile(cfg.Resolver.OutputPath)
	if err != nil {
		return err
	}
	if !cfg.Resolver.Force && existing.Len() > 0 {
		var pending []string
		for _, raw := range names {
			if m, ok := existing.Get(mapping.SubjectID(raw)); ok && !m.Unmapped() {
				continue
			}
			pending = append(pending, raw)
		}
		common.LogInfo("跳過已映射項目",
			zap.Int("總數", len(names)),
			zap.Int("待解析", len(pending)),
		)
		names = pending
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, report := res.Run(ctx, names)

	for _, m := range table.Rows() {
		existing.Merge(m, cfg.Resolver.Force)
	}

	opts := mapping.WriteOptions{
		Tool:        resolver.Tool,
		License:     "https://creativecommons.org/licenses/by/4.0/",
		GeneratedAt: time.Now().UTC(),
	}
	if err := existing.WriteFile(cfg.Resolver.OutputPath, opts); err != nil {
		return common.NewError(common.ErrCodeOutputWrite, "映射表寫入失敗", err)
	}

	common.LogInfo("映射表已寫出",
		zap.String("路徑", cfg.Resolver.OutputPath),
		zap.Int("筆數", existing.Len()),
	)

	// 執行報告寫在映射表旁邊，另複製一份到標準輸出
	reportPath := cfg.Resolver.OutputPath + ".report"
	f, err := os.Create(reportPath)
	if err != nil {
		return common.NewError(common.ErrCodeOutputWrite, "報告寫入失敗", err)
	}
	defer f.Close()
	if err := report.Write(f); err != nil {
		return common.NewError(common.ErrCodeOutputWrite, "報告寫入失敗", err)
	}
	return report.Write(os.Stdout)
}

// runServer HTTP 服務模式
func runServer(cfg *config.Config, dict *dictionary.Dictionary, res *resolver.Resolver, store cache.Store) {
	router := api.SetupRouter(cfg, dict, res, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("HTTP 服務啟動", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
