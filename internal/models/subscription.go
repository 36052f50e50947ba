package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Preferred contact channels
const (
	ContactWhatsApp = "whatsapp"
	ContactTelegram = "telegram"
)

type Subscription struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	FullName      string     `json:"full_name" db:"full_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	ContactMethod string     `json:"contact_method" db:"contact_method"`
	PlanID        string     `json:"plan_id" db:"plan_id"`
	PlanName      string     `json:"plan_name" db:"plan_name"`
	PlanPrice     string     `json:"plan_price" db:"plan_price"`
	PlanDuration  string     `json:"plan_duration" db:"plan_duration"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at" db:"expires_at"`
	IPTVUsername  *string    `json:"iptv_username" db:"iptv_username"`
	IPTVPassword  *string    `json:"iptv_password" db:"iptv_password"`
	IPTVURL       *string    `json:"iptv_url" db:"iptv_url"`
}

// Credentials is the provisioned account information returned to the
// customer and attached to an active subscription.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

// Credentials returns the IPTV credentials attached to the subscription,
// or nil when the subscription has not been provisioned yet.
func (s *Subscription) Credentials() *Credentials {
	if s.IPTVUsername == nil || s.IPTVPassword == nil || s.IPTVURL == nil {
		return nil
	}
	return &Credentials{
		Username: *s.IPTVUsername,
		Password: *s.IPTVPassword,
		URL:      *s.IPTVURL,
	}
}

type SubscriptionStats struct {
	Total   int            `json:"total"`
	Active  int            `json:"active"`
	Pending int            `json:"pending"`
	Expired int            `json:"expired"`
	ByPlan  map[string]int `json:"by_plan"`
}
