package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/common/config"
	"github.com/diana-martinez-ship-it/estructura-avanzada/common/logger"
	"github.com/diana-martinez-ship-it/estructura-avanzada/common/tracing"
)

func main() {
	cfg := Config{
		ServiceName:  config.GetEnv("SERVICE_NAME", "ecomarket"),
		InstanceID:   config.GetEnv("INSTANCE_ID", "default"),
		HTTPAddr:     config.GetEnv("HTTP_ADDR", ":8000"),
		DataFile:     config.GetEnv("DATA_FILE", "productos_data.json"),
		RabbitMQHost: config.GetEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort: config.GetEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser: config.GetEnv("RABBITMQ_USER", "admin"),
		RabbitMQPass: config.GetEnv("RABBITMQ_PASS", "admin123"),
		RedisAddr:    config.GetEnv("REDIS_ADDR", ""),
		ConsulAddr:   config.GetEnv("CONSUL_ADDR", ""),
		RandomSeed:   int64(config.GetEnvInt("RANDOM_SEED", 0)),
	}

	log := logger.NewLogger(cfg.ServiceName)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("starting service",
		zap.String("instance_id", cfg.InstanceID),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	if config.GetEnvBool("TRACING_ENABLED", true) {
		shutdown, err := tracing.InitTracer(cfg.ServiceName)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer shutdown()
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Fatal("failed to create app", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		if err := app.Shutdown(context.Background()); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
		cancel()
	}()

	if err := app.Start(ctx); err != nil {
		log.Fatal("failed to start app", zap.Error(err))
	}
}
