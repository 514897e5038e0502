// internal/service/assignment_service.go
package service

import (
    "fmt"
    "log"
    "strconv"
    "strings"
    "time"

    "github.com/unclebandit/rollingemailer-backend/internal/airtable"
    appErrors "github.com/unclebandit/rollingemailer-backend/internal/errors"
    "github.com/unclebandit/rollingemailer-backend/internal/model"
)

// NetworkClient is the slice of the CRM the engine consumes.
type NetworkClient interface {
    ListTaggings(tagID string) ([]model.Tagging, error)
    GetPerson(id string) (*model.Person, error)
    UpdatePerson(id string, customFields map[string]interface{}) error
    CreateTagging(tagID, personHref string) error
    DeleteTagging(selfHref string) error
}

// TableClient is the slice of the target/message store the engine consumes.
type TableClient interface {
    Query(table string, opts airtable.QueryOptions) ([]airtable.Record, error)
    Update(table, recordID string, fields map[string]interface{}) error
}

// AssignmentService is the rolling assignment engine. One Process call
// handles one batch of newly tagged people for one emailer configuration.
type AssignmentService struct {
    Network      NetworkClient
    Table        TableClient
    TargetTable  string
    MessageTable string
    Now          func() time.Time
}

func (s *AssignmentService) now() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// Process runs one batch for the emailer and returns the number of people
// actually assigned. Skipped (ineligible) and failed taggings are logged
// and left on the trigger tag; a failed tagging is retried by the next run
// because it is only deleted after its full side-effect chain completes.
func (s *AssignmentService) Process(cfg model.Emailer) (int, error) {
    taggings, err := s.Network.ListTaggings(cfg.TriggerTagID)
    if err != nil {
        return 0, fmt.Errorf("list taggings for tag %s: %w", cfg.TriggerTagID, err)
    }

    log.Printf("📩 [%s] Processing %d new taggings", cfg.Prefix, len(taggings))

    processed, skipped, failed := 0, 0, 0
    for _, tagging := range taggings {
        person, err := s.Network.GetPerson(tagging.PersonID)
        if err != nil {
            log.Printf("⚠️ [%s] failed to fetch person for tagging %s: %v", cfg.Prefix, tagging.SelfHref, err)
            failed++
            continue
        }

        targetIndex, err := targetIndex(person, cfg.Prefix)
        if err != nil {
            log.Printf("⚠️ [%s] bad target index for tagging %s: %v", cfg.Prefix, tagging.SelfHref, err)
            failed++
            continue
        }

        if !eligible(targetIndex, tagging.ModifiedAt, cfg.DelayMins, s.now()) {
            skipped++
            continue
        }

        if err := s.assignTarget(cfg, tagging, person, targetIndex); err != nil {
            log.Printf("⚠️ [%s] assignment failed for tagging %s: %v", cfg.Prefix, tagging.SelfHref, err)
            failed++
            continue
        }
        processed++
    }

    log.Printf("✅ [%s] Processing done: %d assigned, %d skipped, %d failed of %d fetched",
        cfg.Prefix, processed, skipped, failed, len(taggings))
    return processed, nil
}

// eligible implements the debounce gate: a person on their first contact is
// never delayed; otherwise the tagging must be older than the configured
// delay.
func eligible(targetIndex int, modifiedAt time.Time, delayMins int, now time.Time) bool {
    if targetIndex == 0 {
        return true
    }
    return now.Sub(modifiedAt) > time.Duration(delayMins)*time.Minute
}

// targetIndex reads <prefix>_target_index from the person. Absent or empty
// counts as 0 (first contact); a present non-integer value is an error
// rather than a silent reset.
func targetIndex(person *model.Person, prefix string) (int, error) {
    key := FieldKey(prefix, FieldTargetIndex)
    raw, ok := person.CustomFields[key]
    if !ok || raw == nil {
        return 0, nil
    }

    switch v := raw.(type) {
    case string:
        if strings.TrimSpace(v) == "" {
            return 0, nil
        }
        n, err := strconv.Atoi(strings.TrimSpace(v))
        if err != nil {
            return 0, appErrors.NewDataIntegrityError(key, fmt.Sprintf("not an integer: %q", v))
        }
        return n, nil
    case float64:
        return int(v), nil
    case int:
        return v, nil
    default:
        return 0, appErrors.NewDataIntegrityError(key, fmt.Sprintf("unexpected type %T", raw))
    }
}

// assignTarget runs the ordered side-effect chain for one person. The
// trigger tagging is deleted last: any earlier failure leaves it in place
// so a later run retries the person. This is at-least-once, not
// transactional — a crash after the person update duplicates the
// assignment on retry.
func (s *AssignmentService) assignTarget(cfg model.Emailer, tagging model.Tagging, person *model.Person, targetIndex int) error {
    targetsEach := cfg.TargetsEach
    if targetsEach < 1 {
        targetsEach = 1
    }

    targets, err := s.Table.Query(s.TargetTable, airtable.QueryOptions{
        View:       cfg.TargetView,
        MaxRecords: targetsEach,
    })
    if err != nil {
        return err
    }
    if len(targets) == 0 {
        return appErrors.NewDataIntegrityError(cfg.TargetView, "target view returned no rows")
    }

    contact, err := coalesceTargets(targets)
    if err != nil {
        return err
    }

    message, err := s.nextMessage(cfg.MessageView, targetIndex)
    if err != nil {
        return err
    }

    update := map[string]interface{}{
        FieldKey(cfg.Prefix, FieldNextEmail):     contact.Email,
        FieldKey(cfg.Prefix, FieldNextFirstName): contact.FirstName,
        FieldKey(cfg.Prefix, FieldNextLastName):  contact.LastName,
        FieldKey(cfg.Prefix, FieldNextPosition):  contact.Position,
        FieldKey(cfg.Prefix, FieldNextPhone):     contact.Phone,
        FieldKey(cfg.Prefix, FieldNextMessage):   message,
        FieldKey(cfg.Prefix, FieldTargetIndex):   targetIndex + 1,
    }
    if err := s.Network.UpdatePerson(person.ID, update); err != nil {
        return err
    }

    for _, target := range targets {
        sentTo := append(stringList(target, "Contact Sent To"), person.SelfHref)
        fields := map[string]interface{}{
            "Emails Sent Manual": intOrZero(target, "Emails Sent Manual") + 1,
            "Contact Sent To":    sentTo,
        }
        if err := s.Table.Update(s.TargetTable, target.ID, fields); err != nil {
            return err
        }
    }

    if err := s.Network.CreateTagging(cfg.EndTagID, person.SelfHref); err != nil {
        return err
    }

    // Delete last: everything above must have succeeded before the
    // tagging stops being visible to future runs.
    return s.Network.DeleteTagging(tagging.SelfHref)
}

// nextMessage picks the pinned message when the view returns one first,
// otherwise the message whose threshold equals the person's target index.
// No match means an empty body.
func (s *AssignmentService) nextMessage(view string, targetIndex int) (string, error) {
    formula := fmt.Sprintf("OR({Pin}=TRUE(), {Previous Emails}=%d)", targetIndex)
    messages, err := s.Table.Query(s.MessageTable, airtable.QueryOptions{
        View:    view,
        Formula: formula,
    })
    if err != nil {
        return "", err
    }
    if len(messages) == 0 {
        return "", nil
    }
    return stringField(messages[0], "HTML Content"), nil
}

// contactInfo is the displayable slice of one or more coalesced targets.
type contactInfo struct {
    Email     string
    FirstName string
    LastName  string
    Position  string
    Phone     string
}

// coalesceTargets joins the displayable fields of the fetched targets into
// comma-separated strings, so the assignment is addressed to the "next"
// contacts as a single unit. Every target must carry an email.
func coalesceTargets(targets []airtable.Record) (contactInfo, error) {
    emails := make([]string, 0, len(targets))
    firstNames := make([]string, 0, len(targets))
    lastNames := make([]string, 0, len(targets))
    positions := make([]string, 0, len(targets))
    phones := make([]string, 0, len(targets))

    for _, target := range targets {
        email := stringField(target, "Email")
        if email == "" {
            return contactInfo{}, appErrors.NewDataIntegrityError("Email", fmt.Sprintf("target %s has no email", target.ID))
        }
        emails = append(emails, email)
        firstNames = append(firstNames, stringField(target, "First Name"))
        lastNames = append(lastNames, stringField(target, "Last Name"))
        positions = append(positions, stringField(target, "Position"))
        phones = append(phones, stringField(target, "Phone"))
    }

    return contactInfo{
        Email:     strings.Join(emails, ","),
        FirstName: strings.Join(firstNames, ","),
        LastName:  strings.Join(lastNames, ","),
        Position:  strings.Join(positions, ","),
        Phone:     strings.Join(phones, ","),
    }, nil
}

func stringField(rec airtable.Record, name string) string {
    if v, ok := rec.Fields[name].(string); ok {
        return v
    }
    return ""
}

func intOrZero(rec airtable.Record, name string) int {
    switch v := rec.Fields[name].(type) {
    case float64:
        return int(v)
    case int:
        return v
    case string:
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return 0
}

func stringList(rec airtable.Record, name string) []string {
    raw, ok := rec.Fields[name].([]interface{})
    if !ok {
        return []string{}
    }
    out := make([]string, 0, len(raw))
    for _, item := range raw {
        if s, ok := item.(string); ok {
            out = append(out, s)
        }
    }
    return out
}
