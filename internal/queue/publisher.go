package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jackpoints/internal/logger"
	"jackpoints/internal/models"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	ErrQueueFull       = errors.New("publish queue is full")
	ErrPublisherClosed = errors.New("publisher is closed")
)

const (
	defaultBuffer  = 1024
	publishTimeout = 5 * time.Second
	minBackoff     = time.Second
	maxBackoff     = time.Minute
)

type message struct {
	id   string
	body []byte
	at   time.Time
}

// Publisher отправляет события в RabbitMQ из отдельной горутины.
// PublishTransaction только кладёт событие в буфер; при переполнении
// или во время паузы после ошибки брокера события теряются.
type Publisher struct {
	url   string
	queue string

	events    chan message
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	send func(ctx context.Context, m message) error
	now  func() time.Time

	// состояние ниже трогает только воркер
	backoff time.Duration
	retryAt time.Time
	conn    *amqp.Connection
	ch      *amqp.Channel
}

func NewPublisher(url, queue string) *Publisher {
	p := newPublisher(queue, defaultBuffer, nil)
	p.url = url
	p.send = p.sendAMQP
	p.start()
	return p
}

func newPublisher(queue string, buffer int, send func(context.Context, message) error) *Publisher {
	return &Publisher{
		queue:  queue,
		events: make(chan message, buffer),
		done:   make(chan struct{}),
		send:   send,
		now:    time.Now,
	}
}

func (p *Publisher) start() {
	p.wg.Add(1)
	go p.run()
}

func (p *Publisher) PublishTransaction(ctx context.Context, tx *models.Transaction) error {
	body, err := json.Marshal(NewTransactionAppendedEvent(tx))
	if err != nil {
		return err
	}
	m := message{id: tx.ID, body: body, at: time.Now().UTC()}

	select {
	case <-p.done:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case p.events <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.closeConn()
	for {
		select {
		case <-p.done:
			if n := len(p.events); n > 0 {
				logger.Log.Warn("Публикатор остановлен, события не отправлены", zap.Int("dropped", n))
			}
			return
		case m := <-p.events:
			p.deliver(m)
		}
	}
}

func (p *Publisher) deliver(m message) {
	if now := p.now(); now.Before(p.retryAt) {
		logger.Log.Debug("RabbitMQ недоступен, событие пропущено",
			zap.String("id", m.id),
			zap.Time("retry_at", p.retryAt),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.send(ctx, m); err != nil {
		p.closeConn()
		switch {
		case p.backoff == 0:
			p.backoff = minBackoff
		case p.backoff < maxBackoff:
			p.backoff = min(p.backoff*2, maxBackoff)
		}
		p.retryAt = p.now().Add(p.backoff)
		logger.Log.Warn("Ошибка публикации в RabbitMQ",
			zap.String("id", m.id),
			zap.Duration("backoff", p.backoff),
			zap.Error(err),
		)
		return
	}
	p.backoff = 0
	p.retryAt = time.Time{}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeConn()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(publishTimeout)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// durable: сообщения переживают рестарт брокера
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	logger.Log.Info("Подключение к RabbitMQ установлено", zap.String("queue", p.queue))
	return ch, nil
}

func (p *Publisher) sendAMQP(ctx context.Context, m message) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    m.id,
		Type:         EventTransactionAppended,
		Timestamp:    m.at,
		Body:         m.body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *Publisher) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close останавливает воркер и ждёт его завершения.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}
