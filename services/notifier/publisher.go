package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
	"github.com/supportos/complaintstack/internal/utils"
)

const (
	ExchangeDeadLetter = "dead-letter"

	QueueEscalations = "complaint-escalations"
	DLQEscalations   = QueueEscalations + "-dlq"

	RoutingKeyDeadLetter = "dead-letter"

	DefaultMessageTTL          = 240 * time.Hour // after TTL message moves to DLQ
	DefaultMaxRetries          = 3
	DefaultPublishTimeout      = 5 * time.Second
	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
)

type rabbitMQNotifier struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	confirms        chan amqp091.Confirmation
	cfg             *config.NotificationConfig
	logger          logger.Logger
}

func NewRabbitMQNotifier(cfg *config.NotificationConfig, log logger.Logger) (interfaces.NotifierService, error) {
	notifier := &rabbitMQNotifier{
		cfg:    cfg,
		logger: log,
	}

	if err := notifier.connect(); err != nil {
		return nil, err
	}
	return notifier, nil
}

// NotifyEscalation publishes the escalation event with publisher confirms
// and bounded retries.
func (r *rabbitMQNotifier) NotifyEscalation(ctx context.Context, complaint *models.Complaint) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQNotifier.NotifyEscalation")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag(tracing.SpanTagComplaintId, complaint.ID)

	event := dto.ComplaintNotification{
		ComplaintID:   complaint.ID,
		MessageID:     complaint.MessageID,
		CustomerEmail: complaint.CustomerEmail,
		Subject:       complaint.Subject,
		Category:      complaint.Category.String(),
		Priority:      complaint.Priority.String(),
		Sentiment:     complaint.Sentiment.String(),
		Department:    complaint.Department.String(),
		ReceivedAt:    complaint.ReceivedAt,
		EscalatedAt:   utils.Now(),
	}
	tracing.LogObjectAsJson(span, "event", event)

	for attempt := 0; attempt < DefaultMaxRetries; attempt++ {
		err := r.publishWithConfirm(ctx, event)
		if err == nil {
			return nil
		}

		r.logger.Warnf("escalation publish attempt %d failed: %v", attempt+1, err)
		if attempt < DefaultMaxRetries-1 {
			time.Sleep(time.Millisecond * 100 * time.Duration(attempt+1))
		}
	}

	err := errors.New("failed to publish escalation after all retries")
	tracing.TraceErr(span, err)
	return err
}

func (r *rabbitMQNotifier) publishWithConfirm(ctx context.Context, event dto.ComplaintNotification) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := r.ensureConnectionAndChannel(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal escalation event")
	}

	err = r.publishChannel.Publish(
		r.cfg.Exchange,
		r.cfg.RoutingKey,
		true,  // mandatory - ensure message is routed
		false, // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			Body:         jsonBody,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return errors.Wrap(err, "failed to publish escalation")
	}

	select {
	case confirm := <-r.confirms:
		if !confirm.Ack {
			return errors.New("message was not confirmed by server")
		}
	case <-time.After(DefaultPublishTimeout):
		return errors.New("publish confirmation timeout")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (r *rabbitMQNotifier) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	r.connection, err = amqp091.Dial(r.cfg.RabbitMQURL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	if err = r.setupExchangesAndQueues(); err != nil {
		return errors.Wrap(err, "failed to setup exchanges and queues")
	}

	if err = r.setupPublishChannel(); err != nil {
		return errors.Wrap(err, "failed to setup publish channel")
	}

	go r.handleReconnection()

	return nil
}

func (r *rabbitMQNotifier) ensureConnectionAndChannel() error {
	if r.connection == nil || r.connection.IsClosed() {
		if err := r.connect(); err != nil {
			return errors.Wrap(err, "failed to establish connection")
		}
	}

	if r.publishChannel == nil || r.publishChannel.IsClosed() {
		if err := r.setupPublishChannel(); err != nil {
			return errors.Wrap(err, "failed to establish channel")
		}
	}

	return nil
}

func (r *rabbitMQNotifier) setupPublishChannel() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open publish channel")
	}

	// Enable publisher confirms
	if err = channel.Confirm(false); err != nil {
		channel.Close()
		return errors.Wrap(err, "failed to enable publisher confirms")
	}

	r.confirms = channel.NotifyPublish(make(chan amqp091.Confirmation, 1))
	r.publishChannel = channel
	return nil
}

func (r *rabbitMQNotifier) setupExchangesAndQueues() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel for exchange/queue setup")
	}
	defer channel.Close()

	// Dead letter exchange (direct)
	err = channel.ExchangeDeclare(
		ExchangeDeadLetter,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrap(err, "failed to declare dead letter exchange")
	}

	// Escalations exchange (direct)
	err = channel.ExchangeDeclare(
		r.cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare exchange %s", r.cfg.Exchange)
	}

	if err = r.declareQueueWithDLQ(channel, QueueEscalations, DLQEscalations); err != nil {
		return err
	}
	err = channel.QueueBind(
		QueueEscalations,
		r.cfg.RoutingKey,
		r.cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to bind queue %s to exchange %s", QueueEscalations, r.cfg.Exchange)
	}

	return nil
}

func (r *rabbitMQNotifier) declareQueueWithDLQ(channel *amqp091.Channel, queueName string, dlqName string) error {
	_, err := channel.QueueDeclare(
		dlqName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare DLQ %s", dlqName)
	}

	err = channel.QueueBind(
		dlqName,
		RoutingKeyDeadLetter,
		ExchangeDeadLetter,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to bind DLQ %s to exchange", dlqName)
	}

	args := make(map[string]interface{})
	args["x-dead-letter-exchange"] = ExchangeDeadLetter
	args["x-dead-letter-routing-key"] = RoutingKeyDeadLetter
	args["x-message-ttl"] = int64(DefaultMessageTTL.Milliseconds())

	_, err = channel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		args,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", queueName)
	}

	return nil
}

func (r *rabbitMQNotifier) handleReconnection() {
	backoff := DefaultReconnectBackoff

	for {
		notifyClose := r.connection.NotifyClose(make(chan *amqp091.Error))
		err := <-notifyClose
		if err == nil {
			// Clean shutdown.
			return
		}
		r.logger.Warnf("RabbitMQ connection closed: %v, attempting to reconnect", err)

		for {
			if err := r.connect(); err == nil {
				r.logger.Info("successfully reconnected to RabbitMQ")
				break
			} else {
				r.logger.Errorf("failed to reconnect: %v, retrying in %v", err, backoff)
				time.Sleep(backoff)
			}

			backoff *= 2
			if backoff > DefaultMaxReconnectBackoff {
				backoff = DefaultMaxReconnectBackoff
			}
		}

		backoff = DefaultReconnectBackoff
	}
}

func (r *rabbitMQNotifier) Close() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	if r.publishChannel != nil {
		if closeErr := r.publishChannel.Close(); closeErr != nil {
			r.logger.Errorf("error closing publish channel: %v", closeErr)
			err = closeErr
		}
	}

	if r.connection != nil {
		if closeErr := r.connection.Close(); closeErr != nil {
			r.logger.Errorf("error closing connection: %v", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}

	return err
}
