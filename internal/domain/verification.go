package domain

import "time"

// PendingVerification is the OTP issued for an email that has not yet been
// registered. At most one exists per email; issuing a new code replaces it.
// ExpiresAt is a Unix timestamp and doubles as the DynamoDB TTL attribute.
type PendingVerification struct {
	Email     string `json:"email" dynamodbav:"email"`
	Name      string `json:"name" dynamodbav:"name"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
	Verified  bool   `json:"verified" dynamodbav:"verified"`
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
}

// MaxOTPAttempts is the number of wrong codes after which a record is discarded.
const MaxOTPAttempts = 5

// Expired reports whether the code can no longer be used at now.
func (p *PendingVerification) Expired(now time.Time) bool {
	return now.Unix() > p.ExpiresAt
}
