package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/unclebandit/rollingemailer-backend/internal/actionnetwork"
	"github.com/unclebandit/rollingemailer-backend/internal/airtable"
	"github.com/unclebandit/rollingemailer-backend/internal/config"
	"github.com/unclebandit/rollingemailer-backend/internal/db"
	"github.com/unclebandit/rollingemailer-backend/internal/queue"
	"github.com/unclebandit/rollingemailer-backend/internal/repository"
	"github.com/unclebandit/rollingemailer-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	emailerRepo := &repository.EmailerRepository{DB: conn}

	// Connect to RabbitMQ
	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.RunsQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job queue.RunJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			if err := processRun(job.EmailerID, cfg, emailerRepo); err != nil {
				log.Println("Run failed for emailer", job.EmailerID, ":", err)
				// Retry logic: requeue up to 3 times
				if retryCount(d.Headers) < 3 {
					d.Nack(false, true) // requeue
					continue
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for run jobs...")
	<-forever
}

func retryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

func processRun(emailerID int, cfg *config.Config, repo repository.EmailerRepositoryInterface) error {
	emailer, err := repo.GetByID(emailerID)
	if err != nil {
		return err
	}

	// Per-emailer CRM credential: the row names the env variable holding
	// the key, so one worker can serve campaigns under different accounts.
	apiKey := os.Getenv(emailer.CredentialEnv)

	svc := &service.AssignmentService{
		Network:      actionnetwork.NewClient(apiKey),
		Table:        airtable.NewClient(cfg.AirtableAPIKey, cfg.AirtableBase),
		TargetTable:  cfg.AirtableTargetTable,
		MessageTable: cfg.AirtableMessageTable,
	}

	count, err := svc.Process(*emailer)
	if err != nil {
		return err
	}

	log.Printf("✅ Emailer %d run complete: %d people assigned\n", emailer.ID, count)
	return nil
}
