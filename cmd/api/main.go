package main

import (
	"context"
	"net/http"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/auth"
	"github.com/eqzhou81/CPEN-321-sub000/internal/cache"
	"github.com/eqzhou81/CPEN-321-sub000/internal/config"
	"github.com/eqzhou81/CPEN-321-sub000/internal/database"
	"github.com/eqzhou81/CPEN-321-sub000/internal/fetcher"
	"github.com/eqzhou81/CPEN-321-sub000/internal/handler"
	"github.com/eqzhou81/CPEN-321-sub000/internal/logger"
	"github.com/eqzhou81/CPEN-321-sub000/internal/openai"
	"github.com/eqzhou81/CPEN-321-sub000/internal/realtime"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/internal/service"
	"github.com/eqzhou81/CPEN-321-sub000/pkg"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type application struct {
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Cache      *cache.Cache
	Logger     *zap.Logger
	Config     *config.Config
	Repository *repository.Repository
	Tokens     *auth.JWTMaker
	Hub        *realtime.Hub
	Handler    *handler.Handler
	// bypassUser is attached to every request when auth bypass is enabled
	bypassUser *model.User
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, _ := logger.NewLogger(cfg.Env)
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infof("config loaded: %s", cfg)

	pool, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		sugar.Fatal(err)
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			sugar.Fatal(err)
		}
	}

	rdb := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(ctx, rdb); err != nil {
		sugar.Fatalf("redis: %v", err)
	}
	defer rdb.Close()
	lookups := cache.New(rdb, cfg.Redis.CacheTTL)

	crypto, err := pkg.NewCrypto(cfg.Crypto.Secret)
	if err != nil {
		sugar.Fatal(err)
	}

	openaiClient := openai.NewClient(cfg.LLM)
	fetcherClient := fetcher.NewFetcher(cfg.Fetcher, lookups, log)
	tokens := auth.NewJWTMaker(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	hub := realtime.NewHub(cfg.GetCORSOrigins(), log)

	repo := repository.NewRepository(pool)

	feedback := service.NewFeedbackService(openaiClient, log)
	h := &handler.Handler{
		Logger:      log,
		Users:       service.NewUserService(repo.User, auth.NewGoogleVerifier(cfg.Google.ClientID), tokens, lookups, log),
		Jobs:        service.NewJobService(repo.Job, fetcherClient, log),
		Questions:   service.NewQuestionService(repo.Question, repo.Job, openaiClient, fetcherClient, cfg.Fetcher.TechnicalCount, log),
		Sessions:    service.NewSessionService(repo.Session, repo.Question, repo.Job, feedback, crypto, log),
		Discussions: service.NewDiscussionService(repo.Discussion, hub, log),
	}
	handler.RegisterValidators()

	app := &application{
		DB:         pool,
		Redis:      rdb,
		Cache:      lookups,
		Logger:     log,
		Config:     cfg,
		Repository: repo,
		Tokens:     tokens,
		Hub:        hub,
		Handler:    h,
	}

	if cfg.Bypass.Enabled {
		if app.bypassUser, err = app.ensureBypassUser(ctx); err != nil {
			sugar.Fatal(err)
		}
		sugar.Warnf("auth bypass enabled, all requests act as %s", app.bypassUser.Email)
	}

	if err := app.serve(); err != nil && err != http.ErrServerClosed {
		sugar.Fatal(err)
	}
}

// ensureBypassUser creates or refreshes the mock user requests act as when
// auth is bypassed.
func (app *application) ensureBypassUser(ctx context.Context) (*model.User, error) {
	id, err := uuid.Parse(app.Config.Bypass.UserID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return app.Repository.User.Upsert(ctx, &model.User{
		UserID:   id,
		GoogleID: "bypass-" + id.String(),
		Email:    app.Config.Bypass.Email,
		Name:     app.Config.Bypass.Name,
	})
}
