// Package models holds the domain entities, their create requests and their
// patch objects.
package models

import (
	"time"

	"buildmatrix/internal/authz"
)

// ProjectStatus values.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// MaterialRequest status values.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestFulfilled = "fulfilled"
)

// Task status values.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskCancelled  = "cancelled"
)

// User is an employee account. PasswordHash never leaves the server.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Principal returns the authorization identity of u.
func (u User) Principal() authz.Principal {
	return authz.Principal{ID: u.ID, Role: u.Role}
}

type Project struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        *string   `json:"description"`
	StartDate          Date      `json:"start_date"`
	EndDate            *Date     `json:"end_date"`
	ProjectManagerID   *int64    `json:"project_manager_id"`
	ProjectManagerName *string   `json:"project_manager_name"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

type InventoryItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Quantity    int       `json:"quantity"`
	Unit        *string   `json:"unit"`
	Category    *string   `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaterialRequest is owned by the manager of its project. ProjectManagerID is
// resolved through the project join and is what ownership checks use.
type MaterialRequest struct {
	ID               int64     `json:"id"`
	ProjectID        int64     `json:"project_id"`
	ProjectName      *string   `json:"project_name"`
	ProjectManagerID *int64    `json:"project_manager_id"`
	InventoryID      int64     `json:"inventory_id"`
	InventoryName    *string   `json:"inventory_name"`
	Quantity         int       `json:"quantity"`
	Notes            *string   `json:"notes"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Task is owned by its assigned employee.
type Task struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	ProjectID    int64     `json:"project_id"`
	ProjectName  *string   `json:"project_name"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeName *string   `json:"employee_name"`
	DueDate      *Date     `json:"due_date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
