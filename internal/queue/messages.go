// Package queue moves recurring-transaction work items through RabbitMQ.
// Delivery is at-least-once: consumers must tolerate seeing the same work
// item more than once.
package queue

import "time"

// RoutingKeyRecurring routes recurring work items to the worker queue.
const RoutingKeyRecurring = "transaction.recurring"

// RecurringWorkItem identifies one due recurring transaction to materialize.
type RecurringWorkItem struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}
