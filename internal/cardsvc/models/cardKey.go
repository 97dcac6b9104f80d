package models

import "time"

type CardKey struct {
	ID          int64      `json:"id"`
	Code        string     `json:"key_code"`
	Used        bool       `json:"is_used"`
	FirstUsedAt *time.Time `json:"first_used_at"` // set exactly once, when Used turns true
	CreatedAt   time.Time  `json:"created_at"`
}

type RedeemStatus string

const (
	Redeemed        RedeemStatus = "redeemed"
	AlreadyRedeemed RedeemStatus = "already_redeemed"
	CodeNotFound    RedeemStatus = "not_found"
)

// RedeemResult is the outcome of one redemption attempt. FirstUsedAt is the
// stored timestamp for both Redeemed and AlreadyRedeemed.
type RedeemResult struct {
	Status      RedeemStatus `json:"status"`
	Code        string       `json:"key_code"`
	FirstUsedAt *time.Time   `json:"first_used_at,omitempty"`
}

type Stats struct {
	Total  int64 `json:"total"`
	Used   int64 `json:"used"`
	Unused int64 `json:"unused"`
}
