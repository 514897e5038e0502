// internal/controller/trigger_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/unclebandit/rollingemailer-backend/internal/errors"
    "github.com/unclebandit/rollingemailer-backend/internal/queue"
    "github.com/unclebandit/rollingemailer-backend/internal/repository"
)

// TriggerController exposes the run-trigger surface: a manual run by
// emailer id and a webhook keyed by the per-emailer token. Both only
// enqueue a job; the worker does the actual processing.
type TriggerController struct {
    Emailers repository.EmailerRepositoryInterface
    Queue    queue.Publisher
}

func (c *TriggerController) RunEmailer(w http.ResponseWriter, r *http.Request) {
    idStr := chi.URLParam(r, "id")
    id, err := strconv.Atoi(idStr)
    if err != nil {
        http.Error(w, "invalid emailer id", http.StatusBadRequest)
        return
    }

    emailer, err := c.Emailers.GetByID(id)
    if err != nil {
        var notFound *appErrors.ErrEmailerNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    if err := c.Queue.Publish(queue.RunsQueue, queue.RunJob{EmailerID: emailer.ID}); err != nil {
        log.Println("⚠️ Failed to enqueue run for emailer", emailer.ID, ":", err)
        http.Error(w, "failed to enqueue run", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "emailer_id": emailer.ID,
        "status":     "queued",
    })
}

func (c *TriggerController) Webhook(w http.ResponseWriter, r *http.Request) {
    token := chi.URLParam(r, "token")

    emailer, err := c.Emailers.GetByWebhook(token)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    if emailer == nil {
        http.Error(w, "unknown webhook", http.StatusNotFound)
        return
    }

    if err := c.Queue.Publish(queue.RunsQueue, queue.RunJob{EmailerID: emailer.ID}); err != nil {
        log.Println("⚠️ Failed to enqueue run for emailer", emailer.ID, ":", err)
        http.Error(w, "failed to enqueue run", http.StatusInternalServerError)
        return
    }

    // Only the public fields leak through the unauthenticated webhook.
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(emailer.PublicView())
}
