package exchange

import (
	"errors"
	"fmt"
)

// Sentinel errors for the exchange.
var (
	// ErrNotSubscribed is returned when detaching a receiver that is not
	// attached to the topic.
	ErrNotSubscribed = errors.New("receiver is not subscribed")

	// ErrNilReceiver is returned when attaching a nil receiver.
	ErrNilReceiver = errors.New("receiver cannot be nil")

	// ErrInvalidTopic is returned for empty or malformed topic names.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrReceiverPanic matches any *PanicError via errors.Is.
	ErrReceiverPanic = errors.New("receiver panicked")
)

// DeliveryError wraps the failure of one subscriber during a send.
type DeliveryError struct {
	// Topic is the topic the message was sent on.
	Topic Name

	// SubscriptionID identifies the failing subscription.
	SubscriptionID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to subscription %s on topic %s: %v", e.SubscriptionID, e.Topic, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking subscriber.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at recovery.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("receiver panicked: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrReceiverPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrReceiverPanic
}
