// internal/service/fieldkey.go
package service

// CustomField is one of the engine-owned logical field names persisted on a
// person record. The set is fixed; keys are always built through FieldKey so
// the prefix namespacing lives in exactly one place.
type CustomField string

const (
    FieldNextEmail     CustomField = "next_email"
    FieldNextFirstName CustomField = "next_first_name"
    FieldNextLastName  CustomField = "next_last_name"
    FieldNextPosition  CustomField = "next_position"
    FieldNextPhone     CustomField = "next_phone"
    FieldNextMessage   CustomField = "next_message"
    FieldTargetIndex   CustomField = "target_index"
)

// FieldKey returns the namespaced custom-field key for an emailer prefix.
func FieldKey(prefix string, field CustomField) string {
    return prefix + "_" + string(field)
}
