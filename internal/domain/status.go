package domain

import (
	"fmt"
	"strings"
)

// QuestionStatus is the lifecycle state of a question
type QuestionStatus string

const (
	StatusPendingPayment QuestionStatus = "pending_payment"
	StatusReceived       QuestionStatus = "received"
	StatusInProgress     QuestionStatus = "in_progress"
	StatusAnswered       QuestionStatus = "answered"
	StatusCancelled      QuestionStatus = "cancelled"
	StatusRefunded       QuestionStatus = "refunded"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []QuestionStatus{
	StatusPendingPayment,
	StatusReceived,
	StatusInProgress,
	StatusAnswered,
	StatusCancelled,
	StatusRefunded,
}

// ParseQuestionStatus validates a raw status value
func ParseQuestionStatus(raw string) (QuestionStatus, error) {
	s := QuestionStatus(strings.TrimSpace(raw))
	for _, known := range AllStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// IsTerminal reports whether no further transition can leave s
func (s QuestionStatus) IsTerminal() bool {
	return s == StatusAnswered || s == StatusCancelled || s == StatusRefunded
}

// TransitionEvent names what is driving a status change
type TransitionEvent string

const (
	EventPaymentConfirmed TransitionEvent = "payment_confirmed"
	EventAdminSetStatus   TransitionEvent = "admin_set_status"
	EventAnswerPublished  TransitionEvent = "answer_published"
)

// transitions maps event -> from -> allowed targets. This is the only
// place where the lifecycle is defined.
var transitions = map[TransitionEvent]map[QuestionStatus][]QuestionStatus{
	EventPaymentConfirmed: {
		StatusPendingPayment: {StatusReceived},
	},
	EventAdminSetStatus: {
		StatusPendingPayment: {StatusReceived, StatusCancelled, StatusRefunded},
		StatusReceived:       {StatusInProgress, StatusCancelled, StatusRefunded},
		StatusInProgress:     {StatusCancelled, StatusRefunded},
	},
	EventAnswerPublished: {
		StatusReceived:   {StatusAnswered},
		StatusInProgress: {StatusAnswered},
	},
}

// CanTransition reports whether event may move a question from -> to
func CanTransition(event TransitionEvent, from, to QuestionStatus) bool {
	for _, target := range transitions[event][from] {
		if target == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which event may reach to, in
// lifecycle order. An empty result means the target is unreachable.
func SourcesFor(event TransitionEvent, to QuestionStatus) []QuestionStatus {
	var sources []QuestionStatus
	for _, from := range AllStatuses {
		if CanTransition(event, from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// Urgency selects the price and SLA tier of a question
type Urgency string

const (
	UrgencyStandard Urgency = "standard"
	UrgencyUrgent   Urgency = "urgent"
)

// ParseUrgency validates a raw urgency value
func ParseUrgency(raw string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case UrgencyStandard, UrgencyUrgent:
		return u, nil
	}
	return "", fmt.Errorf("urgency must be %q or %q", UrgencyStandard, UrgencyUrgent)
}

// PaymentStatus tracks the provider side independently of QuestionStatus
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)
