// internal/errors/errors.go
package appErrors

import "fmt"

// ErrEmailerNotFound is a sentinel error
type ErrEmailerNotFound struct {
    EmailerID int
}

func (e *ErrEmailerNotFound) Error() string {
    return fmt.Sprintf("emailer with ID %d not found", e.EmailerID)
}

// Helper constructor
func NewEmailerNotFound(id int) error {
    return &ErrEmailerNotFound{EmailerID: id}
}

// FetchError reports a non-2xx response from one of the remote stores.
type FetchError struct {
    Store      string // "action_network" or "airtable"
    Endpoint   string
    StatusCode int
}

func (e *FetchError) Error() string {
    return fmt.Sprintf("%s fetch failed: %s returned status %d", e.Store, e.Endpoint, e.StatusCode)
}

func NewFetchError(store, endpoint string, status int) error {
    return &FetchError{Store: store, Endpoint: endpoint, StatusCode: status}
}

// DataIntegrityError reports a record missing or carrying a malformed field
// the engine cannot proceed without.
type DataIntegrityError struct {
    Field  string
    Reason string
}

func (e *DataIntegrityError) Error() string {
    return fmt.Sprintf("data integrity error on field %q: %s", e.Field, e.Reason)
}

func NewDataIntegrityError(field, reason string) error {
    return &DataIntegrityError{Field: field, Reason: reason}
}
