package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/diana-martinez-ship-it/estructura-avanzada/delivery"
	"github.com/diana-martinez-ship-it/estructura-avanzada/health"
)

// memoryFailBand is the share of enqueues that fail with a simulated
// connection error when the gate is open.
const memoryFailBand = 0.10

// Memory is the in-process queue backend. Sequence numbers keep growing
// across pops, so an id is never reused within the process.
type Memory struct {
	health *health.Registry
	rand   delivery.Rand
	logger *zap.Logger

	mu            sync.Mutex
	entries       []Entry
	seq           int64
	lastProcessed time.Time
}

func NewMemory(reg *health.Registry, rnd delivery.Rand, logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{health: reg, rand: rnd, logger: logger}
}

func (m *Memory) Enqueue(ctx context.Context, msg delivery.Message) delivery.EnqueueResult {
	if open, down := m.health.Gate(health.ServiceRedis); !open {
		return disabledResult(down)
	}

	if m.rand.Float64() < memoryFailBand {
		m.logger.Warn("fallo de conexión simulado en cola")
		return delivery.EnqueueResult{
			Kind:           delivery.KindConnection,
			Code:           delivery.CodeRedisConnection,
			Error:          errNoConnection,
			Message:        msgNotProcessed,
			Recommendation: recTryOtherMode,
		}
	}

	m.mu.Lock()
	m.seq++
	entry := Entry{Seq: m.seq, EnqueuedAt: time.Now(), Message: msg}
	m.entries = append(m.entries, entry)
	depth := int64(len(m.entries))
	m.mu.Unlock()

	m.logger.Info("venta encolada",
		zap.Int64("queue_id", entry.Seq),
		zap.Int64("posicion", depth),
	)
	return delivery.EnqueueResult{OK: true, Seq: entry.Seq, Depth: depth, Message: msgEnqueued}
}

func (m *Memory) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Size:     len(m.entries),
		Pending:  len(m.entries),
		Messages: make([]Summary, 0, statusTail),
	}
	if !m.lastProcessed.IsZero() {
		ts := m.lastProcessed
		st.LastProcessed = &ts
	}

	start := len(m.entries) - statusTail
	if start < 0 {
		start = 0
	}
	for _, e := range m.entries[start:] {
		st.Messages = append(st.Messages, Summary{
			ID:        e.Seq,
			Timestamp: e.EnqueuedAt,
			Product:   e.ProductName,
		})
	}
	return st, nil
}

func (m *Memory) ProcessNext(ctx context.Context) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return nil, nil
	}
	head := m.entries[0]
	m.entries = m.entries[1:]
	m.lastProcessed = time.Now()
	return &head, nil
}

func (m *Memory) Close() error { return nil }

func disabledResult(down string) delivery.EnqueueResult {
	servicio := health.DisplayName(down)
	return delivery.EnqueueResult{
		Kind:           delivery.KindServiceDisabled,
		Code:           delivery.CodeServiceDisabled,
		Error:          fmt.Sprintf("Conexión a %s deshabilitada (simulación)", servicio),
		Message:        msgNotProcessed,
		Recommendation: fmt.Sprintf("Reactiva '%s' desde el simulador de fallos", servicio),
	}
}
