package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"restoran-pos/internal/events"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("kuyruk dolu")
}

func TestCountingPublisher(t *testing.T) {
	m := New()
	pub := m.Publisher(events.Nop{})
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, events.Event{
		Type:    events.EventOrderCreated,
		Payload: events.OrderCreatedPayload{DateShifted: true},
	}))
	require.NoError(t, pub.Publish(ctx, events.Event{
		Type:    events.EventOrderCreated,
		Payload: events.OrderCreatedPayload{},
	}))
	require.NoError(t, pub.Publish(ctx, events.Event{Type: events.EventShiftDayClosed}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.domainEvents.WithLabelValues(events.EventOrderCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.domainEvents.WithLabelValues(events.EventShiftDayClosed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftedOrders))

	err := m.Publisher(failingPublisher{}).Publish(ctx, events.Event{Type: events.EventShiftDayClosed})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedEvents.WithLabelValues(events.EventShiftDayClosed)))
}

func TestShiftedOrderCountedWhenPublishFails(t *testing.T) {
	m := New()

	err := m.Publisher(failingPublisher{}).Publish(context.Background(), events.Event{
		Type:    events.EventOrderCreated,
		Payload: events.OrderCreatedPayload{DateShifted: true},
	})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shiftedOrders))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.droppedEvents.WithLabelValues(events.EventOrderCreated)))
	assert.Zero(t, testutil.ToFloat64(m.domainEvents.WithLabelValues(events.EventOrderCreated)))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/orders/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "yok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/orders/:id", "404")))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pos_http_requests_total")
}
