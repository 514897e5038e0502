// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/rollingemailer-backend/internal/config"
	"github.com/unclebandit/rollingemailer-backend/internal/controller"
	"github.com/unclebandit/rollingemailer-backend/internal/db"
	"github.com/unclebandit/rollingemailer-backend/internal/queue"
	"github.com/unclebandit/rollingemailer-backend/internal/repository"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to database")

	emailerRepo := &repository.EmailerRepository{DB: conn}

	triggerController := &controller.TriggerController{
		Emailers: emailerRepo,
		Queue:    &queue.AMQPPublisher{URL: cfg.AMQPURL},
	}

	r := chi.NewRouter()

	// Run trigger routes
	r.Post("/emailers/{id}/run", triggerController.RunEmailer)
	r.Post("/emailers/hook/{token}", triggerController.Webhook)

	log.Println("🚀 Trigger server running on", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}
