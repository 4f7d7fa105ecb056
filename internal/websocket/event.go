package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeApproved  EventType = "approved"
	EventTypeRejected  EventType = "rejected"
	EventTypeReminded  EventType = "reminded"
	EventTypeSubmitted EventType = "submitted"
)

// EntityType represents the entity the event is about
type EntityType string

const (
	EntityTypeMember      EntityType = "member"
	EntityTypeLoan        EntityType = "loan"
	EntityTypePayment     EntityType = "payment"
	EntityTypeLoanRequest EntityType = "loan_request"
	EntityTypeReceipt     EntityType = "receipt"
	EntityTypeOverdue     EntityType = "overdue_list"
)

// Event is the message pushed to admin-panel clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentCreated creates a payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePayment, payload)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanUpdated creates a loan.updated event
func LoanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoan, payload)
}

// LoanReminded creates a loan.reminded event carrying the loan, month and stage
func LoanReminded(payload interface{}) Event {
	return NewEvent(EventTypeReminded, EntityTypeLoan, payload)
}

// MemberUpdated creates a member.updated event
func MemberUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeMember, payload)
}

// LoanRequestSubmitted creates a loan_request.submitted event
func LoanRequestSubmitted(payload interface{}) Event {
	return NewEvent(EventTypeSubmitted, EntityTypeLoanRequest, payload)
}

// LoanRequestApproved creates a loan_request.approved event
func LoanRequestApproved(payload interface{}) Event {
	return NewEvent(EventTypeApproved, EntityTypeLoanRequest, payload)
}

// LoanRequestRejected creates a loan_request.rejected event
func LoanRequestRejected(payload interface{}) Event {
	return NewEvent(EventTypeRejected, EntityTypeLoanRequest, payload)
}

// ReceiptSubmitted creates a receipt.submitted event
func ReceiptSubmitted(payload interface{}) Event {
	return NewEvent(EventTypeSubmitted, EntityTypeReceipt, payload)
}

// ReceiptApproved creates a receipt.approved event
func ReceiptApproved(payload interface{}) Event {
	return NewEvent(EventTypeApproved, EntityTypeReceipt, payload)
}

// OverdueListSent creates an overdue_list.created event with the digest items
func OverdueListSent(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeOverdue, payload)
}
