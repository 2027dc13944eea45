package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-caves/api"
	api_i "github.com/beka-birhanu/vinom-caves/api/i"
	"github.com/beka-birhanu/vinom-caves/api/identity"
	worldapi "github.com/beka-birhanu/vinom-caves/api/world"
	"github.com/beka-birhanu/vinom-caves/config"
	"github.com/beka-birhanu/vinom-caves/game/movement"
	"github.com/beka-birhanu/vinom-caves/infrastruture/cache"
	logger "github.com/beka-birhanu/vinom-caves/infrastruture/log"
	"github.com/beka-birhanu/vinom-caves/infrastruture/repo"
	"github.com/beka-birhanu/vinom-caves/infrastruture/token"
	"github.com/beka-birhanu/vinom-caves/service"
	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Global variables for dependencies
var (
	envs            config.Config
	mongoClient     *mongo.Client
	redisClient     *redis.Client
	worldRepo       i.WorldRepo
	worldCache      i.WorldCache
	jwtTokenizer    i.Tokenizer
	worldSessions   *service.WorldSessionManager
	worldController api_i.Controller
	router          *api.Router
	appLogger       i.Logger
)

func newLogger(prefix, color string) i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", envs.DBUser, envs.DBPassword, envs.DBHost, envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initWorldRepo(client *mongo.Client) {
	worldRepo = repo.NewWorldRepo(client, envs.DBName, "worlds", newLogger("WORLD-REPO", config.ColorMagenta))
	appLogger.Info("World repository initialized")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     envs.RedisAddr,
		Password: envs.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initWorldCache(client *redis.Client) {
	var err error
	worldCache, err = cache.NewRedisWorldCache(client, envs.WorldCacheTTL, newLogger("WORLD-CACHE", config.ColorBlue))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating world cache: %v", err))
		os.Exit(1)
	}
	appLogger.Info("World cache initialized")
}

func initSessionManager() {
	var err error
	worldSessions, err = service.NewWorldSessionManager(&service.Config{
		Cache:  worldCache,
		Repo:   worldRepo,
		Logger: newLogger("SESSION-MANAGER", config.ColorCyan),
		Width:  envs.WorldWidth,
		Height: envs.WorldHeight,
		Movement: &movement.Options{
			SearchStepDelay: time.Duration(envs.SearchStepDelay) * time.Millisecond,
			RevealPause:     time.Duration(envs.RevealPause) * time.Millisecond,
			ReplayStepDelay: time.Duration(envs.ReplayStepDelay) * time.Millisecond,
		},
		IdleTTL: time.Duration(envs.SessionTTL) * time.Minute,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating session manager: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Session manager initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(envs.JWTSecret, envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initWorldController() {
	var err error
	worldController, err = worldapi.NewController(worldSessions, jwtTokenizer, time.Duration(envs.SessionTTL)*time.Minute)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating world controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("World controller initialized")
}

func initRouter(t i.Tokenizer) {
	gin.SetMode(envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", envs.HostIP, envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{worldController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	envs = config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	initMongo(ctx)
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	initRedis(ctx)
	defer redisClient.Close()

	initWorldRepo(mongoClient)
	initWorldCache(redisClient)
	initSessionManager()
	defer worldSessions.StopAll()

	initJWTTokenizer()
	initWorldController()
	initRouter(jwtTokenizer)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() {
		errs <- router.Run()
	}()

	select {
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		}
	case sig := <-stop:
		appLogger.Info(fmt.Sprintf("Received %s, shutting down", sig))
	}
}
