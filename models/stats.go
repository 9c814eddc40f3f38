package models

// Stats aggregates expiry counts over one entity collection. Active is only
// meaningful for subscriptions (count of entities with status "active").
type Stats struct {
	Total          int `json:"total"`
	Expiring3Days  int `json:"expiring3Days"`
	Expiring7Days  int `json:"expiring7Days"`
	Expiring30Days int `json:"expiring30Days"`
	Expired        int `json:"expired"`
	Active         int `json:"active,omitempty"`
}
