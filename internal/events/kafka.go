package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mesajları bir kuyruğa alır ve arka planda yazar; istek
// akışı broker'ı beklemez.
type KafkaPublisher struct {
	w        messageWriter
	producer string
	log      *logrus.Logger

	// mu inbox'a gönderimi Close'a karşı korur
	mu     sync.RWMutex
	closed bool
	inbox  chan kafka.Message
	done   chan struct{}
	once   sync.Once
}

var ErrPublisherClosed = errors.New("event yayıncısı kapatıldı")

func NewKafkaPublisher(brokers []string, producer string, buf int, log *logrus.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, producer, buf, log)
}

func newKafkaPublisher(w messageWriter, producer string, buf int, log *logrus.Logger) *KafkaPublisher {
	if buf <= 0 {
		buf = 256
	}
	p := &KafkaPublisher{
		w:        w,
		producer: producer,
		log:      log,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			p.log.WithError(err).WithField("topic", m.Topic).Warn("kafka mesajı yazılamadı")
		}
		cancel()
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("event payload encode edilemedi: %w", err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     ev.Type,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: ev.CorrelationID,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event envelope encode edilemedi: %w", err)
	}

	msg := kafka.Message{
		Topic: ev.Topic,
		Key:   []byte(ev.Key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(ev.Type)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("%w, %s düşürüldü", ErrPublisherClosed, ev.Type)
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return fmt.Errorf("event kuyruğu dolu, %s düşürüldü", ev.Type)
	}
}

// Close kuyruktaki mesajları yazıp writer'ı kapatır.
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
	<-p.done
	return p.w.Close()
}
