package models

import (
	"time"

	_ "github.com/lib/pq"
)

// User represents the users table.
type User struct {
	ID          int       `json:"id" example:"1"`
	EmployeeId  string    `json:"employee_id" example:"EMP001"`
	Email       string    `json:"email" example:"user@example.com"`
	Password    string    `json:"password" example:""`
	FirstName   string    `json:"first_name" example:"John"`
	LastName    string    `json:"last_name" example:"Doe"`
	Department  string    `json:"department" example:"Procurement"`
	PhoneNo     string    `json:"phone_no" example:"9876543210"`
	RoleID      int       `json:"role_id" example:"1"`
	RoleName    string    `json:"role_name" example:"Buyer"`
	IsAdmin     bool      `json:"is_admin" example:"false"`
	Suspended   bool      `json:"suspended" example:"false"`
	FirstAccess time.Time `json:"first_access,omitempty" example:"2024-01-15T10:30:00Z"`
	LastAccess  time.Time `json:"last_access,omitempty" example:"2024-01-15T10:30:00Z"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// Session represents the session table. Each device gets its own session row
// and refresh token.
type Session struct {
	UserID                int       `json:"user_id" example:"1"`
	SessionID             string    `json:"session_id" example:""`
	HostName              string    `json:"host_name" example:"user@example.com"`
	IPAddress             string    `json:"ip_address" example:"10.0.0.12"`
	Timestamp             time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	ExpiresAt             time.Time `json:"expires_at" example:"2024-01-16T10:30:00Z"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

// LoginRequest is the request body for /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:""`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ActivityLog represents the activity_logs table.
type ActivityLog struct {
	ID           int       `json:"id" example:"1"`
	EventContext string    `json:"event_context" example:"Quote"`
	EventName    string    `json:"event_name" example:"Evaluate"`
	Description  string    `json:"description" example:"Quote evaluated"`
	UserName     string    `json:"user_name" example:"John Doe"`
	HostName     string    `json:"host_name" example:"user@example.com"`
	IPAddress    string    `json:"ip_address" example:"10.0.0.12"`
	EntityID     string    `json:"entity_id,omitempty" example:"QT-AB12345"`
	CreatedAt    time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// Notification represents the notifications table.
type Notification struct {
	ID        int       `json:"id" example:"1"`
	UserID    int       `json:"user_id" example:"1"`
	Message   string    `json:"message" example:"Quote QT-AB12345 was selected"`
	Status    string    `json:"status" example:"unread"`
	Action    string    `json:"action,omitempty" example:"/quotes/1"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// EmailData carries the variable values substituted into email templates.
type EmailData struct {
	Email          string
	UserName       string
	SupplierName   string
	BuyerName      string
	DocumentNumber string
	DocumentTitle  string
	Amount         string
	Currency       string
	DueDate        string
	Reason         string
	LoginURL       string
	SupportEmail   string
}
