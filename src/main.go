package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memo-app/src/config"
	"memo-app/src/infrastructure/repository"
	"memo-app/src/interface/handler"
	"memo-app/src/logger"
	"memo-app/src/routes"
	"memo-app/src/service"
	"memo-app/src/storage"
	"memo-app/src/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 設定を読み込み
	cfg := config.LoadConfig()

	// `memo-app token <subject>` でAPI用のアクセストークンを発行する
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(cfg, os.Args[2:]))
	}

	if err := logger.InitLogger(cfg.Log); err != nil {
		panic(fmt.Sprintf("ロガーの初期化に失敗: %v", err))
	}
	defer logger.CloseLogger()

	logger.WithFields(logrus.Fields{
		"storage_backend": cfg.Storage.Backend,
		"auth_enabled":    cfg.Auth.Enabled,
	}).Info("アプリケーションを開始しています")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// メモの保存先を開く
	kv, closeStore, err := storage.Open(ctx, cfg, logger.Log)
	if err != nil {
		logger.Log.WithError(err).Fatal("ストレージの初期化に失敗")
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Log.WithError(err).Error("ストレージのクローズに失敗")
		}
	}()

	memoRepo := repository.NewMemoRepository(kv, logger.Log)
	memoUsecase := usecase.NewMemoUsecase(memoRepo, logger.Log)
	if _, err := memoUsecase.Initialize(ctx); err != nil {
		// 壊れたデータを上書きしないよう起動を中止する
		logger.Log.WithError(err).Fatal("保存済みメモの読み込みに失敗")
	}

	// S3アップローダーを初期化（設定が有効な場合）
	var uploader *storage.LogUploader
	if cfg.Log.UploadEnabled {
		client, err := storage.NewS3Client(storage.S3ConfigFrom(cfg))
		if err != nil {
			logger.Log.WithError(err).Error("S3アップローダーの初期化に失敗")
		} else {
			uploader = storage.NewLogUploader(client, cfg.S3.Bucket, logger.Log, logger.GetCurrentLogFile)
			if err := uploader.StartPeriodicUpload(ctx, cfg.Log.Directory, cfg.Log.UploadInterval, cfg.Log.UploadMaxAge); err != nil {
				logger.Log.WithError(err).Error("定期的なログアップロードを開始できません")
			}
		}
	}

	var jwtService service.JWTService
	if cfg.Auth.Enabled {
		if cfg.Auth.JWTSecret == "" {
			logger.Log.Fatal("AUTH_ENABLED=true ですが JWT_SECRET が設定されていません")
		}
		jwtService = service.NewJWTService(cfg.Auth)
	}

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// NoRouteハンドラー（404）
	r.NoRoute(func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"uri":       c.Request.RequestURI,
			"client_ip": c.ClientIP(),
		}).Warn("404: ルートが見つかりません")
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	// NoMethodハンドラー（405）
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"uri":       c.Request.RequestURI,
			"client_ip": c.ClientIP(),
		}).Warn("405: サポートされていないメソッド")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// 認証が不要なパブリックルート
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Hello World",
			"version": "3.0",
			"service": "memo-app-api-server",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().Format(time.RFC3339),
			"storage":   cfg.Storage.Backend,
			"memos":     memoUsecase.ListMemos().Total,
		})
	})

	routes.SetupRoutes(r, handler.NewMemoHandler(memoUsecase, logger.Log), cfg, jwtService)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Server.Port).Info("サーバーを開始します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("サーバーの起動に失敗")
		}
	}()

	<-ctx.Done()
	logger.Log.Info("シャットダウンシグナルを受信しました")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("サーバーの停止に失敗")
	}

	// 最後のログアップロードを実行
	if uploader != nil {
		logger.Log.Info("最後のログアップロードを実行中...")
		if err := uploader.UploadOldLogs(shutdownCtx, cfg.Log.Directory, 0); err != nil {
			logger.Log.WithError(err).Error("最後のログアップロードに失敗")
		}
	}
}

func issueToken(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	expiresIn := fs.Duration("expires-in", cfg.Auth.JWTExpiresIn, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: memo-app token [-expires-in 24h] <subject>")
		return 2
	}

	authCfg := cfg.Auth
	authCfg.JWTExpiresIn = *expiresIn
	token, err := service.NewJWTService(authCfg).GenerateAccessToken(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "トークンの発行に失敗: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}
