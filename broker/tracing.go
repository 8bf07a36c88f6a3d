package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// InjectTraceContext copies the W3C trace context from ctx into AMQP headers
// so a downstream consumer can continue the trace. AMQP has no built-in
// propagation.
func InjectTraceContext(ctx context.Context) amqp.Table {
	headers := make(amqp.Table)
	otel.GetTextMapPropagator().Inject(ctx, &headersCarrier{headers: headers})
	return headers
}

// headersCarrier adapts amqp.Table to the TextMapCarrier interface the
// propagator expects.
type headersCarrier struct {
	headers amqp.Table
}

func (c *headersCarrier) Get(key string) string {
	if val, ok := c.headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (c *headersCarrier) Set(key, value string) {
	c.headers[key] = value
}

func (c *headersCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for k := range c.headers {
		keys = append(keys, k)
	}
	return keys
}
