package parcel

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StatusType classifies a tracking update. The set is closed: carriers map
// their own wording onto one of these types and nothing else.
type StatusType string

const (
	TypeCreated            StatusType = "created"
	TypePosted             StatusType = "posted"
	TypeInTransit          StatusType = "in-transit"
	TypeDepartedOrigin     StatusType = "departed-origin"
	TypeArrivedDestination StatusType = "arrived-destination"
	TypeCustomsCleared     StatusType = "customs-cleared"
	TypeDelivering         StatusType = "delivering"
	TypePickup             StatusType = "pickup"
	TypeDeliveryAttempt    StatusType = "delivery-attempt"
	TypeDelivered          StatusType = "delivered"
	TypeIssue              StatusType = "issue"
)

// requiredDataKeys maps each status type to the data keys it must carry.
// Types absent from the map take no data at all.
var requiredDataKeys = map[StatusType][]string{
	TypeCreated:            {"timestamp"},
	TypeDepartedOrigin:     {"location"},
	TypeArrivedDestination: {"location"},
	TypePickup:             {"location", "until"},
	TypeDelivered:          {"to"},
	TypePosted:             nil,
	TypeInTransit:          nil,
	TypeCustomsCleared:     nil,
	TypeDelivering:         nil,
	TypeDeliveryAttempt:    nil,
	TypeIssue:              nil,
}

// Status is a typed, validated classification attached to an update or to
// the parcel as a whole. Instances only exist fully formed: NewStatus
// rejects any data mapping that does not match the type's required keys.
type Status struct {
	Type        StatusType
	Description string
	Data        map[string]any
}

// ValidationError reports a status whose data mapping does not satisfy the
// required-key set for its type.
type ValidationError struct {
	Type     StatusType
	Expected []string
}

func (e *ValidationError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("status %q takes no data keys", e.Type)
	}
	return fmt.Sprintf("status %q requires data keys %v", e.Type, e.Expected)
}

// NewStatus builds a validated Status. The data mapping must contain exactly
// the keys required for the type; types without required keys must be given
// a nil or empty mapping. Validation is atomic: on failure no Status is
// returned.
func NewStatus(t StatusType, description string, data map[string]any) (*Status, error) {
	required, ok := requiredDataKeys[t]
	if !ok {
		return nil, fmt.Errorf("unknown status type %q", t)
	}

	if len(required) == 0 {
		if len(data) != 0 {
			return nil, &ValidationError{Type: t, Expected: nil}
		}
		return &Status{Type: t, Description: description}, nil
	}

	if len(data) != len(required) {
		return nil, &ValidationError{Type: t, Expected: required}
	}
	for _, key := range required {
		if _, present := data[key]; !present {
			return nil, &ValidationError{Type: t, Expected: required}
		}
	}

	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return &Status{Type: t, Description: description, Data: copied}, nil
}

// MustStatus is a test and rule-table helper for statuses that are known
// valid at compile time.
func MustStatus(t StatusType, description string, data map[string]any) *Status {
	s, err := NewStatus(t, description, data)
	if err != nil {
		panic(err)
	}
	return s
}

// RequiredDataKeys returns the data keys a status type must carry, sorted.
func RequiredDataKeys(t StatusType) []string {
	keys := append([]string(nil), requiredDataKeys[t]...)
	sort.Strings(keys)
	return keys
}

func (s *Status) MarshalJSON() ([]byte, error) {
	type payload struct {
		Type        StatusType     `json:"type"`
		Description string         `json:"description"`
		Data        map[string]any `json:"data,omitempty"`
	}
	return json.Marshal(payload{Type: s.Type, Description: s.Description, Data: s.Data})
}
