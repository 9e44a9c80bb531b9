package enums

import "fmt"

// TransitionTrigger records which actor drove a payment transition.
type TransitionTrigger string

const (
	TransitionTriggerUser    TransitionTrigger = "user"
	TransitionTriggerSystem  TransitionTrigger = "system"
	TransitionTriggerWebhook TransitionTrigger = "webhook"
	TransitionTriggerCron    TransitionTrigger = "cron"
)

var validTransitionTriggers = []TransitionTrigger{
	TransitionTriggerUser,
	TransitionTriggerSystem,
	TransitionTriggerWebhook,
	TransitionTriggerCron,
}

// String implements fmt.Stringer.
func (t TransitionTrigger) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransitionTrigger.
func (t TransitionTrigger) IsValid() bool {
	for _, candidate := range validTransitionTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransitionTrigger converts raw input into a TransitionTrigger.
func ParseTransitionTrigger(value string) (TransitionTrigger, error) {
	for _, candidate := range validTransitionTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition trigger %q", value)
}
