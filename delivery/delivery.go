// Package delivery implements the processing strategies a purchase can be
// routed through once its stock is reserved: a direct call, three retrying
// variants with different wait schedules, and the two side-effect modes that
// hand the purchase to a queue or broker backend.
//
// Every strategy runs the same per-attempt loop: consult the connection
// flags, draw an outcome from its probability bands, classify the failure,
// wait out its schedule. The classification travels as data on the returned
// Outcome, never as a Go error; an error return from Execute means only that
// the request was cancelled mid-wait.
package delivery

import (
	"context"
	"time"
)

// Processing modes as they appear on the wire.
const (
	ModeHTTPDirect     = "HTTP_DIRECTO"
	ModeSimpleRetry    = "REINTENTOS_SIMPLES"
	ModeExpBackoff     = "BACKOFF_EXPONENCIAL"
	ModeScheduledRetry = "REINTENTOS_SOFISTICADOS"
	ModeRedisQueue     = "REDIS_QUEUE"
	ModeRabbitMQ       = "RABBITMQ"
)

// modeServices maps each processing mode to the connection flag that gates it.
var modeServices = map[string]string{
	ModeHTTPDirect:     "http_directo",
	ModeSimpleRetry:    "reintentos_simples",
	ModeExpBackoff:     "backoff_exponencial",
	ModeScheduledRetry: "reintentos_sofisticados",
	ModeRedisQueue:     "redis",
	ModeRabbitMQ:       "rabbitmq",
}

// modes in presentation order.
var modes = []string{
	ModeHTTPDirect,
	ModeSimpleRetry,
	ModeExpBackoff,
	ModeScheduledRetry,
	ModeRedisQueue,
	ModeRabbitMQ,
}

// Modes returns every recognized processing mode in presentation order.
func Modes() []string {
	out := make([]string, len(modes))
	copy(out, modes)
	return out
}

// ServiceFor returns the connection flag gating the given mode.
func ServiceFor(mode string) (string, bool) {
	s, ok := modeServices[mode]
	return s, ok
}

// Error codes surfaced on the wire for failed deliveries.
const (
	CodeServiceDisabled    = "SERVICIO_DESACTIVADO"
	CodeHTTPDirect         = "HTTP_DIRECT_ERROR"
	CodeRetryExhausted     = "RETRY_EXHAUSTED"
	CodeBackoffExhausted   = "BACKOFF_EXHAUSTED"
	CodeScheduledExhausted = "REINTENTOS_SOFISTICADOS_EXHAUSTED"
	CodeRedisConnection    = "REDIS_CONNECTION_ERROR"
	CodeRedisUnexpected    = "REDIS_UNEXPECTED_ERROR"
	CodeBrokerConnection   = "BROKER_CONNECTION_ERROR"
	CodeChannel            = "CHANNEL_ERROR"
	CodeAMQP               = "AMQP_ERROR"
)

// Kind classifies one failed attempt.
type Kind string

const (
	KindConnection      Kind = "connection"
	KindTimeout         Kind = "timeout"
	KindServiceDisabled Kind = "service_disabled"
	KindServiceGeneric  Kind = "service_generic"
)

// Status is the terminal state of a strategy run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Message is the purchase payload handed to strategies and queue backends.
// The JSON tags are the broker wire shape.
type Message struct {
	Timestamp   time.Time `json:"timestamp"`
	ProductID   int       `json:"producto_id"`
	ProductName string    `json:"producto_nombre"`
	Category    string    `json:"categoria"`
	UnitPrice   float64   `json:"precio_unitario"`
	Quantity    int       `json:"cantidad_comprada"`
	Total       float64   `json:"total_pagado"`
	StockAfter  int       `json:"stock_restante"`
	Mode        string    `json:"modo_procesamiento"`
	State       string    `json:"estado"`
}

// AttemptError records one failed attempt. WaitedBefore is the wait actually
// spent before that attempt fired, so that summing it over every attempt of a
// run reproduces the outcome's TotalWait.
type AttemptError struct {
	Attempt      int
	Kind         Kind
	Message      string
	WaitedBefore time.Duration
}

// Outcome is the terminal result of one strategy run. Narrative, Detail,
// Alert, and Recommendation carry the fixed wire texts; Code is the error
// code surfaced on failure. Queue, QueueSeq, QueueDepth, and StatusText are
// filled by the side-effect strategies only.
type Outcome struct {
	Status         Status
	Attempts       int
	TotalWait      time.Duration
	Errors         []AttemptError
	Narrative      string
	Detail         string
	WaitText       string
	Code           string
	Alert          string
	Recommendation string

	Queue      string
	QueueSeq   int64
	QueueDepth int64
	StatusText string
}

// ErrorMessages renders the per-attempt error texts in order.
func (o Outcome) ErrorMessages() []string {
	if len(o.Errors) == 0 {
		return nil
	}
	out := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		out[i] = e.Message
	}
	return out
}

// Strategy is one delivery algorithm. Execute returns an error only when the
// context is cancelled mid-run; every delivery failure is reported as data on
// the Outcome.
type Strategy interface {
	// Mode is the wire tag selecting this strategy.
	Mode() string
	// Service is the connection flag gating this strategy's attempts.
	Service() string
	Execute(ctx context.Context, msg Message) (Outcome, error)
}

// EnqueueResult reports one append to a queue backend.
type EnqueueResult struct {
	OK    bool
	Seq   int64
	Depth int64

	// Failure classification; zero values when OK.
	Kind           Kind
	Code           string
	Error          string
	Message        string
	Recommendation string
}

// PublishResult reports one publish to the broker backend.
type PublishResult struct {
	OK    bool
	Queue string

	Kind    Kind
	Code    string
	Error   string
	Message string
}

// QueueBackend appends purchase messages to an ordered queue. Implementations
// consult the connection flags before touching the queue and never retry.
type QueueBackend interface {
	Enqueue(ctx context.Context, msg Message) EnqueueResult
}

// BrokerBackend publishes one purchase message to the durable broker
// destination. Implementations consult the connection flags before dialing
// and never retry a failed publish.
type BrokerBackend interface {
	Publish(ctx context.Context, msg Message) PublishResult
}

// outcomeBand maps a slice of the uniform [0, 1) draw to a classification.
// A band with success = true ends the run; the last band must cover 1.0.
type outcomeBand struct {
	upTo    float64
	success bool
	kind    Kind
	message string
}

func draw(r Rand, bands []outcomeBand) outcomeBand {
	p := r.Float64()
	for _, b := range bands {
		if p < b.upTo {
			return b
		}
	}
	return bands[len(bands)-1]
}
