package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"tabi/cmd/fx/account_fx"
	"tabi/cmd/fx/agents_fx"
	"tabi/cmd/fx/cache_fx"
	"tabi/cmd/fx/controllers_fx"
	"tabi/cmd/fx/db_fx"
	"tabi/cmd/fx/document_fx"
	"tabi/cmd/fx/jobs_fx"
	"tabi/cmd/fx/llm_fx"
	"tabi/cmd/fx/mail_fx"
	"tabi/cmd/fx/plan_fx"
	"tabi/cmd/fx/travel_fx"
	"tabi/cmd/fx/usage_fx"
	"tabi/internal/api/controllers"
	"tabi/internal/config"
	"tabi/internal/repositories"
	"tabi/pkg/middleware"
	"tabi/pkg/observability"
	"tabi/pkg/utils"
)

func main() {
	cfg := config.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if missing := cfg.Validate(); len(missing) > 0 {
		log.Fatal().Strs("missing", missing).Msg("required configuration is missing")
	}
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)
	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	app := fx.New(
		fx.Supply(cfg),
		db_fx.Module,
		cache_fx.Module,
		llm_fx.Module,
		usage_fx.Module,
		travel_fx.Module,
		jobs_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		document_fx.Module,
		agents_fx.Module,
		plan_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(ResetStaleJobs),
		fx.Invoke(StartServer),
	)

	app.Run()
}

// ResetStaleJobs fails plans and documents left unfinished by a previous run.
func ResetStaleJobs(plans repositories.PlanRepository, documents repositories.DocumentRepository) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p, err := plans.ResetStale(ctx)
	if err != nil {
		return err
	}
	d, err := documents.ResetStale(ctx)
	if err != nil {
		return err
	}
	if p > 0 || d > 0 {
		log.Warn().Int64("plans", p).Int64("documents", d).Msg("marked interrupted jobs as failed")
	}
	return nil
}

func StartServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("HTTP server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type Controllers struct {
	fx.In

	Account  *controllers.AccountController
	Plan     *controllers.PlanController
	Document *controllers.DocumentController
	Usage    *controllers.UsageController
	DevTool  *controllers.DevToolController
	Health   *controllers.HealthController
}

func ProvideRouter(cfg config.Config, ctrl Controllers, revoked middleware.RevocationChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, cfg, ctrl, middleware.JWTAuthMiddleware(revoked))

	return r
}

func RegisterRoutes(r *gin.Engine, cfg config.Config, ctrl Controllers, auth gin.HandlerFunc) {
	r.GET("/healthz", ctrl.Health.Healthz)
	r.GET("/metrics", gin.WrapH(observability.MetricsHandler(observability.InitRegistry())))

	accountGroup := r.Group("/accounts")
	accountGroup.POST("/register", ctrl.Account.Register)
	accountGroup.POST("/login", ctrl.Account.Login)
	accountGroup.POST("/sign-out", auth, ctrl.Account.SignOut)
	accountGroup.GET("/me", auth, ctrl.Account.Me)

	planGroup := r.Group("/plans", auth)
	planGroup.GET("", ctrl.Plan.ListPlans)
	planGroup.POST("", ctrl.Plan.CreatePlan)
	planGroup.GET("/:id", ctrl.Plan.GetPlan)

	documentGroup := r.Group("/documents", auth)
	documentGroup.GET("", ctrl.Document.ListDocuments)
	documentGroup.POST("", ctrl.Document.UploadDocument)
	documentGroup.GET("/search", ctrl.Document.SearchDocuments)
	documentGroup.GET("/:id", ctrl.Document.GetDocument)

	r.GET("/usage", auth, middleware.RoleMiddleware("admin"), ctrl.Usage.GetUsage)

	if cfg.DevMode {
		devGroup := r.Group("/dev", auth)
		devGroup.GET("/tools", ctrl.DevTool.ListTools)
		devGroup.POST("/tools/:name", ctrl.DevTool.RunTool)
		log.Warn().Msg("DEV_MODE is on: /dev/tools is exposed")
	}
}
