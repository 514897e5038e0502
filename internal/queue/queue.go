package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/unclebandit/rollingemailer-backend/internal/model"
	"github.com/unclebandit/rollingemailer-backend/internal/repository"
)

// RunsQueue is the durable queue carrying emailer run jobs.
const RunsQueue = "emailer_runs"

// RunJob asks a worker to process one emailer configuration.
type RunJob struct {
	EmailerID int `json:"emailer_id"`
}

// Publisher is the sending half of a queue.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Queue interface
type Queue interface {
	Publisher
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-memory queue with retry, used for tests and
// single-process runs.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// AMQPPublisher publishes jobs to RabbitMQ. Each Publish opens its own
// connection; trigger traffic is low enough that pooling is not worth it.
type AMQPPublisher struct {
	URL string
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("connect to queue: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open queue channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

var _ Publisher = (*AMQPPublisher)(nil)

// StartRunSubscriber wires an in-memory queue to the engine for
// single-process setups: each job loads the emailer config and runs it.
func StartRunSubscriber(q Queue, emailerRepo repository.EmailerRepositoryInterface, run func(model.Emailer) (int, error)) {
	go func() {
		err := q.Subscribe(RunsQueue, func(payload any) error {
			job, ok := payload.(RunJob)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected RunJob")
				return nil // no retry
			}

			log.Println("📩 Processing queued emailer run, ID:", job.EmailerID)

			emailer, err := emailerRepo.GetByID(job.EmailerID)
			if err != nil {
				log.Println("⚠️ Failed to fetch emailer:", err)
				return err
			}

			count, err := run(*emailer)
			if err != nil {
				log.Println("⚠️ Run failed for emailer", job.EmailerID, ":", err)
				return err // triggers retry in queue
			}

			log.Printf("✅ Run complete for emailer %d: %d people assigned\n", job.EmailerID, count)
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for", RunsQueue, ":", err)
		}
	}()
}
