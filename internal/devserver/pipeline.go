package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/zuvy/assess/internal/session"
)

const topicSubmitted = "assessment.submitted"

// SubmittedEvent is published once per accepted submission.
type SubmittedEvent struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Submission  session.Submission `json:"submission"`
	SubmittedAt time.Time          `json:"submittedAt"`
}

// evaluateFunc scores one submission and stores its evaluations.
type evaluateFunc func(ctx context.Context, ev SubmittedEvent) error

// pipeline carries submissions from the HTTP handler to the evaluator over
// an in-process watermill topic. Publishers wait for their own message to
// be evaluated so the submit response reflects the stored result.
type pipeline struct {
	pubsub   *gochannel.GoChannel
	forward  message.Publisher
	topic    string
	evaluate evaluateFunc
	logger   *slog.Logger

	mu      sync.Mutex
	waiters map[string]chan error
	started bool
	done    chan struct{}
}

func newPipeline(evaluate evaluateFunc, logger *slog.Logger) *pipeline {
	return &pipeline{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger)),
		evaluate: evaluate,
		logger:   logger,
		waiters:  make(map[string]chan error),
		done:     make(chan struct{}),
	}
}

// KafkaConfig enables forwarding of submission events to Kafka.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// forwardToKafka publishes every submission event to cfg.Topic as well.
func (p *pipeline) forwardToKafka(cfg KafkaConfig) error {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(p.logger))
	if err != nil {
		return fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	p.forward = publisher
	p.topic = cfg.Topic
	return nil
}

// start subscribes the evaluator. It returns once the subscription exists.
func (p *pipeline) start(ctx context.Context) error {
	messages, err := p.pubsub.Subscribe(ctx, topicSubmitted)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topicSubmitted, err)
	}
	p.started = true
	go func() {
		defer close(p.done)
		for msg := range messages {
			p.handle(msg)
		}
	}()
	return nil
}

func (p *pipeline) handle(msg *message.Message) {
	defer msg.Ack()

	var ev SubmittedEvent
	err := json.Unmarshal(msg.Payload, &ev)
	if err != nil {
		err = fmt.Errorf("decode submission event: %w", err)
	} else {
		err = p.evaluate(msg.Context(), ev)
	}
	if err != nil {
		p.logger.Error("evaluation failed", "event_id", msg.UUID, "error", err)
	} else {
		p.logger.Info("submission evaluated", "event_id", msg.UUID,
			"user_id", ev.UserID, "assessment_id", ev.Submission.AIAssessmentID)
	}

	p.mu.Lock()
	ch, ok := p.waiters[msg.UUID]
	delete(p.waiters, msg.UUID)
	p.mu.Unlock()
	if ok {
		ch <- err
	}
}

// publish sends ev and waits until it has been evaluated or ctx ends.
func (p *pipeline) publish(ctx context.Context, ev SubmittedEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode submission event: %w", err)
	}

	ch := make(chan error, 1)
	p.mu.Lock()
	p.waiters[ev.ID] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.waiters, ev.ID)
		p.mu.Unlock()
	}()

	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set("event_type", topicSubmitted)
	msg.Metadata.Set("timestamp", ev.SubmittedAt.Format(time.RFC3339))
	if err := p.pubsub.Publish(topicSubmitted, msg); err != nil {
		return fmt.Errorf("publish submission: %w", err)
	}

	if p.forward != nil {
		if err := p.forward.Publish(p.topic, msg.Copy()); err != nil {
			p.logger.Error("failed to forward submission event", "event_id", ev.ID, "topic", p.topic, "error", err)
		}
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the subscription and waits for the evaluator to drain.
func (p *pipeline) close() error {
	err := p.pubsub.Close()
	if p.started {
		<-p.done
	}
	if p.forward != nil {
		if ferr := p.forward.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}
