package repository

import (
    "database/sql"

    appErrors "github.com/unclebandit/rollingemailer-backend/internal/errors"
    "github.com/unclebandit/rollingemailer-backend/internal/model"
)

type EmailerRepositoryInterface interface {
    GetByID(id int) (*model.Emailer, error)
    GetByWebhook(token string) (*model.Emailer, error)
    ListAll() ([]model.Emailer, error)
    Create(e *model.Emailer) error
    Update(e *model.Emailer) error
    Delete(id int) error
}

type EmailerRepository struct {
    DB *sql.DB
}

const emailerColumns = `id, prefix, trigger_tag_id, target_view, message_view, end_tag_id,
        credential_env, targets_each, delay_mins, webhook, created_at, updated_at`

func scanEmailer(row *sql.Row) (*model.Emailer, error) {
    var e model.Emailer
    err := row.Scan(
        &e.ID, &e.Prefix, &e.TriggerTagID, &e.TargetView, &e.MessageView, &e.EndTagID,
        &e.CredentialEnv, &e.TargetsEach, &e.DelayMins, &e.Webhook, &e.CreatedAt, &e.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &e, nil
}

// GetByID fetches one emailer configuration
func (r *EmailerRepository) GetByID(id int) (*model.Emailer, error) {
    query := `SELECT ` + emailerColumns + ` FROM emailers WHERE id=$1`
    e, err := scanEmailer(r.DB.QueryRow(query, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewEmailerNotFound(id)
        }
        return nil, err
    }
    return e, nil
}

// GetByWebhook fetches the emailer owning a webhook token
func (r *EmailerRepository) GetByWebhook(token string) (*model.Emailer, error) {
    query := `SELECT ` + emailerColumns + ` FROM emailers WHERE webhook=$1`
    e, err := scanEmailer(r.DB.QueryRow(query, token))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil // not found; caller decides the status code
        }
        return nil, err
    }
    return e, nil
}

// ListAll fetches every emailer (used by periodic runs over all campaigns)
func (r *EmailerRepository) ListAll() ([]model.Emailer, error) {
    query := `SELECT ` + emailerColumns + ` FROM emailers ORDER BY id`
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    emailers := []model.Emailer{}
    for rows.Next() {
        var e model.Emailer
        if err := rows.Scan(
            &e.ID, &e.Prefix, &e.TriggerTagID, &e.TargetView, &e.MessageView, &e.EndTagID,
            &e.CredentialEnv, &e.TargetsEach, &e.DelayMins, &e.Webhook, &e.CreatedAt, &e.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        emailers = append(emailers, e)
    }
    return emailers, rows.Err()
}

func (r *EmailerRepository) Create(e *model.Emailer) error {
    if e.TargetsEach < 1 {
        e.TargetsEach = 1
    }
    query := `
        INSERT INTO emailers (prefix, trigger_tag_id, target_view, message_view, end_tag_id,
            credential_env, targets_each, delay_mins, webhook, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING id, created_at
    `
    return r.DB.QueryRow(query,
        e.Prefix, e.TriggerTagID, e.TargetView, e.MessageView, e.EndTagID,
        e.CredentialEnv, e.TargetsEach, e.DelayMins, e.Webhook,
    ).Scan(&e.ID, &e.CreatedAt)
}

func (r *EmailerRepository) Update(e *model.Emailer) error {
    query := `
        UPDATE emailers
        SET prefix=$1, trigger_tag_id=$2, target_view=$3, message_view=$4, end_tag_id=$5,
            credential_env=$6, targets_each=$7, delay_mins=$8, updated_at=NOW()
        WHERE id=$9
    `
    _, err := r.DB.Exec(query,
        e.Prefix, e.TriggerTagID, e.TargetView, e.MessageView, e.EndTagID,
        e.CredentialEnv, e.TargetsEach, e.DelayMins, e.ID,
    )
    return err
}

func (r *EmailerRepository) Delete(id int) error {
    _, err := r.DB.Exec(`DELETE FROM emailers WHERE id=$1`, id)
    return err
}

var _ EmailerRepositoryInterface = (*EmailerRepository)(nil)
