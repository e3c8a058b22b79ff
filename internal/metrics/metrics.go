package metrics

import (
	"context"
	"strconv"
	"time"

	"restoran-pos/internal/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics uygulamaya ait kendi registry'si ile gelir; testlerde global
// registry kirlenmez.
type Metrics struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	domainEvents  *prometheus.CounterVec
	droppedEvents *prometheus.CounterVec
	shiftedOrders prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "HTTP istek sayısı",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "HTTP istek süresi",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_domain_events_total",
			Help: "Yayına verilen domain olayları",
		}, []string{"event_type"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_domain_events_dropped_total",
			Help: "Yayınlanamayan domain olayları",
		}, []string{"event_type"}),
		shiftedOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_orders_date_shifted_total",
			Help: "Kapalı güne girildiği için ertesi güne alınan siparişler",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.domainEvents, m.droppedEvents, m.shiftedOrders,
	)
	return m
}

// Middleware istekleri route şablonuna göre sayar (/api/orders/:id gibi).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// Publisher olayları sayar ve asıl yayıncıya iletir.
func (m *Metrics) Publisher(next events.Publisher) events.Publisher {
	return &countingPublisher{next: next, m: m}
}

type countingPublisher struct {
	next events.Publisher
	m    *Metrics
}

// Publish kaydırılan siparişleri yayın sonucundan bağımsız sayar.
func (p *countingPublisher) Publish(ctx context.Context, ev events.Event) error {
	if pl, ok := ev.Payload.(events.OrderCreatedPayload); ok && pl.DateShifted {
		p.m.shiftedOrders.Inc()
	}
	if err := p.next.Publish(ctx, ev); err != nil {
		p.m.droppedEvents.WithLabelValues(ev.Type).Inc()
		return err
	}
	p.m.domainEvents.WithLabelValues(ev.Type).Inc()
	return nil
}
