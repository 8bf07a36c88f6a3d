package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// Redis keys for the queue list, the id counter, and the last-processed mark.
const (
	redisListKey = "compras:cola"
	redisSeqKey  = "compras:seq"
	redisLastKey = "compras:ultimo_procesado"
)

// Redis is the queue backend shared by multiple instances. Ids come from an
// INCR counter, so they stay strictly increasing across pops and restarts.
type Redis struct {
	client *redis.Client
	health *health.Registry
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(addr string, reg *health.Registry, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("conectado a redis", zap.String("addr", addr))
	return &Redis{client: client, health: reg, logger: logger}, nil
}

func (r *Redis) Enqueue(ctx context.Context, msg delivery.Message) delivery.EnqueueResult {
	if open, down := r.health.Gate(health.ServiceRedis); !open {
		return disabledResult(down)
	}

	seq, err := r.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return r.failResult(err)
	}

	entry := Entry{Seq: seq, EnqueuedAt: time.Now(), Message: msg}
	data, err := json.Marshal(entry)
	if err != nil {
		return r.failResult(err)
	}
	if err := r.client.RPush(ctx, redisListKey, data).Err(); err != nil {
		return r.failResult(err)
	}
	depth, err := r.client.LLen(ctx, redisListKey).Result()
	if err != nil {
		return r.failResult(err)
	}

	r.logger.Info("venta encolada en redis",
		zap.Int64("queue_id", seq),
		zap.Int64("posicion", depth),
	)
	return delivery.EnqueueResult{OK: true, Seq: seq, Depth: depth, Message: msgEnqueued}
}

func (r *Redis) Status(ctx context.Context) (Status, error) {
	size, err := r.client.LLen(ctx, redisListKey).Result()
	if err != nil {
		return Status{}, fmt.Errorf("failed to read queue length: %w", err)
	}

	st := Status{
		Size:     int(size),
		Pending:  int(size),
		Messages: make([]Summary, 0, statusTail),
	}

	if raw, err := r.client.Get(ctx, redisLastKey).Result(); err == nil {
		if ts, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			st.LastProcessed = &ts
		}
	}

	items, err := r.client.LRange(ctx, redisListKey, -statusTail, -1).Result()
	if err != nil {
		return Status{}, fmt.Errorf("failed to read queue tail: %w", err)
	}
	for _, raw := range items {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			r.logger.Warn("entrada de cola ilegible", zap.Error(err))
			continue
		}
		st.Messages = append(st.Messages, Summary{
			ID:        e.Seq,
			Timestamp: e.EnqueuedAt,
			Product:   e.ProductName,
		})
	}
	return st, nil
}

func (r *Redis) ProcessNext(ctx context.Context) (*Entry, error) {
	raw, err := r.client.LPop(ctx, redisListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop queue head: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to decode queue entry: %w", err)
	}
	if err := r.client.Set(ctx, redisLastKey, time.Now().Format(time.RFC3339Nano), 0).Err(); err != nil {
		r.logger.Warn("no se pudo registrar el último procesado", zap.Error(err))
	}
	return &e, nil
}

func (r *Redis) Close() error { return r.client.Close() }

// failResult classifies a real Redis failure: network trouble keeps the
// connection error code, anything else is reported as unexpected.
func (r *Redis) failResult(err error) delivery.EnqueueResult {
	r.logger.Error("fallo al encolar en redis", zap.Error(err))

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return delivery.EnqueueResult{
			Kind:           delivery.KindConnection,
			Code:           delivery.CodeRedisConnection,
			Error:          errNoConnection,
			Message:        msgNotProcessed,
			Recommendation: recTryOtherMode,
		}
	}
	return delivery.EnqueueResult{
		Kind:           delivery.KindServiceGeneric,
		Code:           delivery.CodeRedisUnexpected,
		Error:          fmt.Sprintf("Error inesperado: %v", err),
		Message:        msgUnexpected,
		Recommendation: "Intenta nuevamente o usa otro modo de procesamiento",
	}
}
