// internal/model/tagging.go
package model

import "time"

// Tagging links one person to a tag. Its presence on the trigger tag means
// "needs processing"; the engine deletes it via SelfHref once the person's
// assignment chain has completed.
type Tagging struct {
    PersonID   string    `json:"person_id"`
    SelfHref   string    `json:"self_href"`
    ModifiedAt time.Time `json:"modified_at"`
}

// Person is a CRM person record. CustomFields carries the engine-owned
// state, namespaced by the emailer prefix. Values arrive as strings or
// numbers depending on how the CRM stored them.
type Person struct {
    ID           string                 `json:"id"`
    SelfHref     string                 `json:"self_href"`
    CustomFields map[string]interface{} `json:"custom_fields"`
}
