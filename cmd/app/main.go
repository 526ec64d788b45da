package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	dbadapter "inkwell/internal/adapters/database"
	"inkwell/internal/adapters/httpapi"
	redisadapter "inkwell/internal/adapters/redis"
	"inkwell/internal/config"
	"inkwell/internal/core/post"
	postapp "inkwell/internal/core/post/service"
	"inkwell/internal/core/user"
	userapp "inkwell/internal/core/user/service"
	postPort "inkwell/internal/ports/post"
	"inkwell/internal/workers"
)

func main() {
	config.InitLogger()
	config.Init()
	config.InitDB()

	if err := config.DB.AutoMigrate(
		&user.User{},
		&post.Post{},
		&post.Like{},
	); err != nil {
		config.Logger.Fatal("Error during migrations", zap.Error(err))
	}
	config.Logger.Info("Database migrations completed")

	config.InitRedis()
	defer closeResources(config.Logger)

	userRepo := dbadapter.NewUserRepositoryDatabase()
	postRepo := dbadapter.NewPostRepositoryDatabase()
	likeRepo := dbadapter.NewLikeRepositoryDatabase()

	var trending postPort.TrendingRepository
	if config.RedisClient != nil {
		trending = redisadapter.NewTrendingRepositoryRedis(config.RedisClient)
	}

	userSvc := userapp.NewUserService(userRepo, []byte(os.Getenv("JWT_SECRET")))
	postSvc := postapp.NewPostService(postRepo, likeRepo, trending, config.Logger)
	r := httpapi.SetupRoutes(userSvc, postSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if trending != nil {
		keep, err := strconv.ParseInt(os.Getenv("TRENDING_SIZE"), 10, 64)
		if err != nil || keep <= 0 {
			keep = 100
		}
		worker := workers.NewTrendingWorker(trending, keep, time.Hour, config.Logger)
		go worker.Run(ctx)
	}

	config.Logger.Info("App is running")
	if err := r.Run(":" + os.Getenv("APP_PORT")); err != nil {
		config.Logger.Fatal("Server failed to start", zap.Error(err))
	}
}

func closeResources(logger *zap.Logger) {
	if config.RedisClient != nil {
		if err := config.RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}

	sqlDB, err := config.DB.DB()
	if err != nil {
		logger.Error("Error getting raw DB handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection", zap.Error(err))
	}
}
