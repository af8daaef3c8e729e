package main

import (
	"context"
	"crypto/rand"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"MediaLoan-backend/docs"
	"MediaLoan-backend/internal/applications"
	"MediaLoan-backend/internal/loans"
	"MediaLoan-backend/internal/pdfgen"
	"MediaLoan-backend/internal/platform/apperr"
	"MediaLoan-backend/internal/platform/auth"
	"MediaLoan-backend/internal/platform/db"
	"MediaLoan-backend/internal/platform/logger"
	"MediaLoan-backend/internal/platform/metrics"
	"MediaLoan-backend/internal/platform/web"
	"MediaLoan-backend/internal/recordstore"
	"MediaLoan-backend/internal/refdata"
)

// @title                      Media Loan API
// @version                    1.0
// @description                可攜式儲存媒體申請・借用管理
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig(db.ConfigFilePath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting", zap.String("mode", cfg.Mode), zap.String("version", cfg.Version))

	// 台帳（読めなければ起動しない）
	snap, err := refdata.Load(cfg.Data.ExcelPath, refdata.OptionsFromConfig(cfg.Data))
	if err != nil {
		log.Fatal("failed to load excel data", zap.Error(err))
	}
	log.Info("excel data loaded",
		zap.String("path", snap.Source()),
		zap.String("sheet", snap.Sheet()),
		zap.Int("rows", snap.Len()),
	)

	ctx := context.Background()
	appStore, loanStore, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open record stores", zap.Error(err))
	}
	defer closeStores()

	authSvc, closeAuth, err := newAuthService(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to set up auth", zap.Error(err))
	}
	defer closeAuth()

	if cfg.PDF.SofficePath == "" {
		log.Warn("SOFFICE_PATH is not set, PDF generation will fail")
	}
	renderer := pdfgen.NewODTRenderer(
		cfg.PDF.TemplatePath,
		cfg.PDF.TempDir,
		pdfgen.NewSofficeConverter(cfg.PDF.SofficePath, cfg.PDF.Timeout, log),
		log,
	)
	archive, err := newArchive(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to set up pdf archive", zap.Error(err))
	}

	r := newRouter(cfg, log, routes{
		auth:         authSvc,
		refdata:      refdata.NewHandler(snap, log),
		applications: applications.NewService(appStore, renderer, archive, log),
		loans:        loans.NewService(loanStore, snap, log),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Server.TLS {
			// 証明書は config/tls/<mode>/ 配下
			certFile := filepath.Join("config", "tls", cfg.Mode, cfg.Certificate.Cert)
			keyFile := filepath.Join("config", "tls", cfg.Mode, cfg.Certificate.Key)
			log.Info("listening", zap.String("addr", "https://"+cfg.Server.Addr))
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Info("listening", zap.String("addr", "http://"+cfg.Server.Addr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-quit.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

type routes struct {
	auth         *auth.Service
	refdata      *refdata.Handler
	applications *applications.Service
	loans        *loans.Service
}

func newRouter(cfg *db.Config, log *zap.Logger, rt routes) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(
		gin.Recovery(),
		web.RequestID(),
		logger.Middleware(log),
		metrics.Middleware(),
		apperr.Handler(cfg.Mode, log),
	)

	if cfg.Mode == apperr.ModeDev {
		// CORS（開発中のみ必要）
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:5173"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-Id"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))

		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス / メトリクス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	// 管理者ルート: トークン検証 → role=admin
	adminOnly := []gin.HandlerFunc{auth.RequireAuth(rt.auth.Secret()), auth.RequireRole(auth.DefaultRole)}

	auth.RegisterRoutes(api, rt.auth)
	refdata.RegisterPublicRoutes(api.Group("/public"), rt.refdata)
	refdata.RegisterAdminRoutes(api.Group("", adminOnly...), rt.refdata)
	applications.RegisterRoutes(api.Group("/applications"), rt.applications, adminOnly...)
	loans.RegisterRoutes(api.Group("/public/loans"), rt.loans)

	// フロント（SPA）
	if dir := cfg.Server.PublicDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			r.NoRoute(web.SPA(os.DirFS(dir)))
		} else {
			log.Warn("public dir not found, SPA is not served", zap.String("dir", dir))
		}
	}
	return r
}

// openStores: storage.driver が file なら JSON ファイル、それ以外は SQL テーブル
func openStores(ctx context.Context, cfg *db.Config, log *zap.Logger) (
	recordstore.Store[applications.Application], recordstore.Store[loans.Loan], func(), error,
) {
	if cfg.Storage.Driver == db.DriverFile {
		apps := recordstore.NewFileStore[applications.Application]("applications", cfg.Data.ApplicationsFile, log)
		ls := recordstore.NewFileStore[loans.Loan]("loans", cfg.Data.LoansFile, log)
		log.Info("record stores ready", zap.String("driver", db.DriverFile),
			zap.String("applications", apps.Path()), zap.String("loans", ls.Path()))
		return apps, ls, func() {}, nil
	}

	conn, err := db.Connect(cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, conn, cfg.Storage.Driver, log); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	apps, err := recordstore.NewSQLStore[applications.Application](conn, "applications", "applications", log)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	ls, err := recordstore.NewSQLStore[loans.Loan](conn, "loans", "loans", log)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	log.Info("record stores ready", zap.String("driver", cfg.Storage.Driver))
	return apps, ls, func() { conn.Close() }, nil
}

func newArchive(ctx context.Context, cfg *db.Config, log *zap.Logger) (pdfgen.ArchiveStore, error) {
	a := cfg.PDF.Archive
	if a.Driver != db.ArchiveS3 {
		log.Info("pdf archive ready", zap.String("driver", db.ArchiveLocal), zap.String("dir", cfg.PDF.OutputDir))
		return pdfgen.NewArchive(cfg.PDF.OutputDir), nil
	}
	archive, err := pdfgen.NewS3Archive(ctx, pdfgen.S3Options{
		Bucket:   a.Bucket,
		Prefix:   a.Prefix,
		Region:   a.Region,
		Endpoint: a.Endpoint,
		KMSKeyID: a.KMSKeyID,
	})
	if err != nil {
		return nil, err
	}
	log.Info("pdf archive ready", zap.String("driver", db.ArchiveS3), zap.String("bucket", a.Bucket))
	return archive, nil
}

func newAuthService(ctx context.Context, cfg *db.Config, log *zap.Logger) (*auth.Service, func(), error) {
	users, err := auth.LoadUsers(cfg.Auth.UsersFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("users file not found, admin login is disabled", zap.String("path", cfg.Auth.UsersFile))
		users, _ = auth.NewStaticStore(nil)
	case err != nil:
		return nil, nil, err
	default:
		log.Info("users loaded", zap.Int("count", users.Len()))
	}

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		// release では設定検証で弾かれる。dev はプロセスごとの使い捨て鍵
		log.Warn("JWT_SECRET is empty, using a random secret for this process")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, nil, err
		}
	}
	svc := auth.NewService(users, secret, cfg.Auth.TokenTTL, log)

	if cfg.Redis.Addr == "" {
		return svc, func() {}, nil
	}
	rdb, err := db.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// 回数制限が無くてもログインはできる
		log.Warn("redis unavailable, login throttle disabled", zap.Error(err))
		return svc, func() {}, nil
	}
	svc.UseThrottle(auth.NewRedisThrottle(rdb, cfg.Auth.Throttle.MaxAttempts, cfg.Auth.Throttle.Window))
	log.Info("login throttle enabled",
		zap.Int("max_attempts", cfg.Auth.Throttle.MaxAttempts),
		zap.Duration("window", cfg.Auth.Throttle.Window),
	)
	return svc, func() { rdb.Close() }, nil
}
