package api

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/controllers"
	"github.com/tobiakoko/afromerica-voting-api/api/transport"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/metrics"
	"github.com/tobiakoko/afromerica-voting-api/notify"
	"github.com/tobiakoko/afromerica-voting-api/payment"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	metrics.Register()

	db, err := storage.Connect(s.config.DSN, s.config.MaxOpenConns, s.config.MaxIdleConns)
	if err != nil {
		logging.Log.Errorf("failed to connect to database: %v", err)
		panic("failed to connect to database")
	}
	if err := storage.Migrate(db); err != nil {
		logging.Log.Errorf("failed to migrate database: %v", err)
		panic("failed to migrate database")
	}

	var cache storage.Cache
	if s.config.RedisConfig.Enabled {
		redisCache, err := storage.NewRedisCache(s.config.RedisConfig.Address, s.config.RedisConfig.Password, s.config.RedisConfig.DB)
		if err != nil {
			logging.Log.Errorf("failed to connect to redis: %v", err)
			panic("failed to connect to redis")
		}
		cache = redisCache
	} else {
		logging.Log.Warn("redis disabled, using in-process cache")
		cache = storage.NewMemoryCache()
	}

	// Storage
	artistStorage := &storage.GormArtistStorage{DB: db}
	packageStorage := &storage.GormVotePackageStorage{DB: db}
	purchaseStorage := &storage.GormVotePurchaseStorage{DB: db}
	validationStorage := &storage.GormVoteValidationStorage{DB: db}
	configStorage := &storage.GormVotingConfigStorage{DB: db}
	finalScoreStorage := &storage.GormFinalScoreStorage{DB: db}
	eventStorage := &storage.GormLedgerEventStorage{DB: db}
	webhookStorage := &storage.GormWebhookEventStorage{DB: db}

	// Domain services
	tokens := voting.NewTokenIssuer(s.config.OTPConfig.TokenSecret, s.config.OTPConfig.TokenTTL)
	validator := voting.NewValidator(validationStorage, notify.LogSender{}, cache, tokens, voting.OTPConfig{
		CodeLength:     s.config.OTPConfig.CodeLength,
		CodeTTL:        s.config.OTPConfig.CodeTTL,
		MaxAttempts:    s.config.OTPConfig.MaxAttempts,
		ResendCooldown: s.config.OTPConfig.ResendCooldown,
	})
	ranking := voting.NewEngine(artistStorage, finalScoreStorage, eventStorage)
	aggregator := voting.NewAggregator(configStorage, purchaseStorage, artistStorage, cache)
	ledger := voting.NewLedger(purchaseStorage, packageStorage, artistStorage, ranking, tokens, aggregator)
	provider := payment.NewClient(s.config.PaystackConfig.SecretKey, s.config.PaystackConfig.BaseURL)

	// Register controllers
	controllers.NewOTPController(validator).RegisterRoutes(r)
	controllers.NewPaymentsController(ledger, provider, webhookStorage, s.config.PaystackConfig.SecretKey, s.config.PaystackConfig.CallbackURL).RegisterRoutes(r)
	controllers.NewLeaderboardController(artistStorage, aggregator, eventStorage).RegisterRoutes(r)
	controllers.NewArtistAdminController(artistStorage).RegisterRoutes(r)
	controllers.NewPackageMetaController(packageStorage).RegisterRoutes(r)
	controllers.NewFinalsController(finalScoreStorage, ranking).RegisterRoutes(r)
	controllers.NewAdminController(configStorage, ranking, validator).RegisterRoutes(r)

	// Do not run the lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// startLambda sets up for AWS Lambda behind an API gateway
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// startLocal starts a plain HTTP server
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
