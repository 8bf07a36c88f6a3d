// Package broker publishes purchase messages to RabbitMQ with delivery
// guarantees: durable queue, persistent messages, JSON bodies.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// DefaultQueue is the durable destination for purchase messages.
const DefaultQueue = "compras_ecomarket"

// Config holds the connection parameters. Dialing is retried
// ConnectAttempts times total, one second apart.
type Config struct {
	User            string
	Password        string
	Host            string
	Port            string
	Queue           string
	ConnectTimeout  time.Duration
	ConnectAttempts int
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 3
	}
	return c
}

// URL renders the AMQP connection string.
func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// Publisher opens a fresh connection per publish and closes it afterwards,
// mirroring a short-lived producer. It never retries a failed publish; only
// the dial is retried.
type Publisher struct {
	config Config
	health *health.Registry
	logger *zap.Logger
}

func NewPublisher(cfg Config, reg *health.Registry, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{config: cfg.withDefaults(), health: reg, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, msg delivery.Message) delivery.PublishResult {
	if open, down := p.health.Gate(health.ServiceRabbitMQ); !open {
		servicio := health.DisplayName(down)
		p.logger.Warn("publicación bloqueada por simulador", zap.String("flag", down))
		return delivery.PublishResult{
			Kind:    delivery.KindServiceDisabled,
			Code:    delivery.CodeServiceDisabled,
			Error:   fmt.Sprintf("Conexión a %s deshabilitada (simulación)", servicio),
			Message: fmt.Sprintf("Reactiva '%s' desde el simulador de fallos", servicio),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.ConnectTimeout)
	defer cancel()

	conn, err := p.connect(ctx)
	if err != nil {
		p.logger.Error("fallo de conexión a rabbitmq", zap.Error(err))
		return delivery.PublishResult{
			Kind:    delivery.KindConnection,
			Code:    delivery.CodeBrokerConnection,
			Error:   "No se pudo establecer conexión con RabbitMQ",
			Message: "Verifica que RabbitMQ esté ejecutándose y las credenciales sean correctas",
		}
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error("fallo al abrir canal", zap.Error(err))
		return channelResult()
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(p.config.Queue, true, false, false, false, nil)
	if err != nil {
		return p.amqpResult("declarar cola", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return p.amqpResult("serializar mensaje", err)
	}

	err = ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      InjectTraceContext(ctx),
		Body:         body,
	})
	if err != nil {
		return p.amqpResult("publicar", err)
	}

	p.logger.Info("mensaje publicado",
		zap.String("cola", q.Name),
		zap.Int("producto_id", msg.ProductID),
		zap.Float64("total", msg.Total),
	)
	return delivery.PublishResult{
		OK:      true,
		Queue:   q.Name,
		Message: "Mensaje enviado exitosamente a RabbitMQ",
	}
}

// connect dials the broker, retrying with a constant one-second backoff.
func (p *Publisher) connect(ctx context.Context) (*amqp.Connection, error) {
	var conn *amqp.Connection
	backoff := retry.NewConstant(time.Second)
	maxRetries := uint64(p.config.ConnectAttempts - 1)

	err := retry.Do(ctx, retry.WithMaxRetries(maxRetries, backoff), func(ctx context.Context) error {
		c, err := amqp.DialConfig(p.config.URL(), amqp.Config{
			Dial: amqp.DefaultDial(p.config.ConnectTimeout),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// amqpResult classifies a post-connection failure: a closed channel keeps the
// channel error code, everything else is a protocol error.
func (p *Publisher) amqpResult(op string, err error) delivery.PublishResult {
	p.logger.Error("fallo al "+op, zap.Error(err))

	if errors.Is(err, amqp.ErrClosed) {
		return channelResult()
	}
	return delivery.PublishResult{
		Kind:    delivery.KindServiceGeneric,
		Code:    delivery.CodeAMQP,
		Error:   "Error de protocolo AMQP",
		Message: "Error en el protocolo de comunicación con RabbitMQ",
	}
}

func channelResult() delivery.PublishResult {
	return delivery.PublishResult{
		Kind:    delivery.KindConnection,
		Code:    delivery.CodeChannel,
		Error:   "Canal cerrado por RabbitMQ",
		Message: "El canal de comunicación fue cerrado inesperadamente",
	}
}
