package models

// Session struct for storing session data
type Session struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	LastActivity string `json:"last_activity"`
	CSRFToken    string `json:"csrf_token"`
	UserAgent    string `json:"user_agent"`
	IPAddress    string `json:"ip_address"`
}
