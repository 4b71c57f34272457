// Package delivery defines the contract every serving surface implements.
package delivery

import "context"

// Delivery is one long-running serving surface of the application, such as
// the HTTP server or a background worker. All deliveries are collected into
// an Fx group and started together.
type Delivery interface {
	// Serve blocks until the delivery stops or the context is cancelled.
	Serve(ctx context.Context) error
}
