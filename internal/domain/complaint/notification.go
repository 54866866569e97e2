package complaint

import "fmt"

type NotificationKind string

const (
	NotificationComplaintCreated  NotificationKind = "complaint-created"
	NotificationComplaintResolved NotificationKind = "complaint-resolved"
	NotificationGeneric           NotificationKind = "generic"
)

// NotificationForCreation returns the message sent to the owner at intake.
func NotificationForCreation(trackingCode string) (NotificationKind, string) {
	return NotificationComplaintCreated, fmt.Sprintf(
		"Your complaint %s was received. Use the tracking code to follow its progress.",
		trackingCode,
	)
}

// NotificationForTransition returns the kind and message for a status change,
// or ok=false when the target status does not notify.
func NotificationForTransition(trackingCode string, to Status) (NotificationKind, string, bool) {
	switch to {
	case StatusResolved:
		return NotificationComplaintResolved, fmt.Sprintf("Your complaint %s has been resolved.", trackingCode), true
	case StatusInReview:
		return NotificationGeneric, fmt.Sprintf("Your complaint %s is now under review.", trackingCode), true
	case StatusRejected:
		return NotificationGeneric, fmt.Sprintf("Your complaint %s was rejected.", trackingCode), true
	default:
		return "", "", false
	}
}
