package bootstrap

import (
	"log"
	"time"

	"fishquery-be/internal/config"
	"fishquery-be/internal/controller"
	"fishquery-be/internal/middleware"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/repository/implementation"
	"fishquery-be/internal/repository/unitofwork"
	"fishquery-be/internal/service"
	"fishquery-be/pkg/embedding"
	"fishquery-be/pkg/embedding/nomic"
	"fishquery-be/pkg/llm/openai"
	pktNats "fishquery-be/pkg/nats"
	"fishquery-be/pkg/rag/fusion"
	"fishquery-be/pkg/rag/history"
	"fishquery-be/pkg/rag/orchestrator"
	"fishquery-be/pkg/rag/retriever"
	"fishquery-be/pkg/rerank"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController *controller.ChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	natsPublisher *pktNats.Publisher
	redisClient   *redis.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model Providers
	var embedder embedding.EmbeddingProvider = nomic.NewNomicProvider(
		cfg.Embedding.Token,
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.TaskType,
	)
	embedder = embedding.NewCachedProvider(embedder)

	llmProvider := openai.NewOpenAIProvider(
		cfg.Generation.APIKey,
		cfg.Generation.BaseURL,
		cfg.Generation.Model,
	)

	reranker := rerank.NewHTTPReranker(
		cfg.Rerank.APIKey,
		cfg.Rerank.BaseURL,
		cfg.Rerank.Model,
	)

	// 4. Retrieval Pipeline
	passageRepo := implementation.NewPassageRepository(db)
	graphRepo := implementation.NewGraphRepository(db)
	boundaryRepo := implementation.NewBoundaryRepository(db)

	vectorRetriever := retriever.NewVectorRetriever(passageRepo, cfg.Retrieval.CollectionName)
	graphRetriever := retriever.NewGraphRetriever(graphRepo)
	geoRetriever := retriever.NewGeoRetriever(boundaryRepo)

	fuser := fusion.NewFuser(reranker, cfg.Retrieval.RerankTopK, sysLogger)
	historyLoader := history.NewLoader(uowFactory, cfg.Retrieval.HistoryTurns, cfg.Retrieval.ContextBudget)

	orch := orchestrator.New(
		embedder,
		vectorRetriever,
		graphRetriever,
		geoRetriever,
		fuser,
		historyLoader,
		llmProvider,
		uowFactory,
		sysLogger,
		orchestrator.Config{
			TopK:             cfg.Retrieval.TopK,
			EmbedTaskType:    cfg.Embedding.TaskType,
			RetrieverTimeout: 3 * time.Second,
			FanoutTimeout:    5 * time.Second,
		},
	)

	// 5. NATS audit publisher (optional; chat works without it)
	natsPublisher, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("Warn: NATS unavailable, audit events disabled: %v", err)
		natsPublisher = nil
	}

	// 6. Redis rate limiter
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("Warn: invalid REDIS_URL, using defaults: %v", err)
		opt = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	rdb := redis.NewClient(opt)
	rateLimiter := middleware.NewRateLimiter(rdb, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.TitleTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.TitleTopic, uowFactory, sysLogger)

	chatService := service.NewChatService(
		uowFactory,
		orch,
		publisherService,
		natsPublisher,
		sysLogger,
		cfg.Retrieval.MessageMaxLen,
	)

	// 8. Controllers
	chatController := controller.NewChatController(chatService, rateLimiter, sysLogger)

	return &Container{
		ChatController:  chatController,
		ConsumerService: consumerService,
		Logger:          sysLogger,
		natsPublisher:   natsPublisher,
		redisClient:     rdb,
	}
}

// Close releases long-lived connections held by the container.
func (c *Container) Close() {
	if c.natsPublisher != nil {
		c.natsPublisher.Close()
	}
	if c.redisClient != nil {
		_ = c.redisClient.Close()
	}
	_ = c.Logger.Sync()
}
