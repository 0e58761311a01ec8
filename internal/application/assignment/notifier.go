package assignment

import "context"

// AssignmentNotification carries the details shown to a project manager
// when a request lands on their desk
type AssignmentNotification struct {
	ManagerName  string
	ManagerEmail string
	ClientName   string
	ProjectName  string
	ClientPhone  string
}

// Notifier delivers assignment notifications to project managers
// Delivery failures must never affect the assignment itself
type Notifier interface {
	NotifyAssignment(ctx context.Context, notification AssignmentNotification) error
}
