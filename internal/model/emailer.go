// internal/model/emailer.go
package model

import "time"

// Emailer is one rolling-emailer campaign configuration. Rows live in
// Postgres; the struct is passed by value into the engine for a run.
type Emailer struct {
    ID            int        `db:"id" json:"id"`
    Prefix        string     `db:"prefix" json:"prefix"`
    TriggerTagID  string     `db:"trigger_tag_id" json:"trigger_tag_id"`
    TargetView    string     `db:"target_view" json:"target_view"`
    MessageView   string     `db:"message_view" json:"message_view"`
    EndTagID      string     `db:"end_tag_id" json:"end_tag_id"`
    CredentialEnv string     `db:"credential_env" json:"credential_env"`
    TargetsEach   int        `db:"targets_each" json:"targets_each"`
    DelayMins     int        `db:"delay_mins" json:"delay_mins"`
    Webhook       string     `db:"webhook" json:"webhook"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// PublicView strips fields that must not leak through the webhook response.
func (e *Emailer) PublicView() map[string]interface{} {
    return map[string]interface{}{
        "id":     e.ID,
        "prefix": e.Prefix,
    }
}
