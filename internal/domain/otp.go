package domain

import "time"

// OTPPurpose names the channel an OTP proves possession of.
type OTPPurpose string

const (
	OTPPurposePhone OTPPurpose = "phone"
	OTPPurposeEmail OTPPurpose = "email"
)

// ParseOTPPurpose returns the purpose for s, or false when s is not a known channel.
func ParseOTPPurpose(s string) (OTPPurpose, bool) {
	switch p := OTPPurpose(s); p {
	case OTPPurposePhone, OTPPurposeEmail:
		return p, true
	}
	return "", false
}

// OTP is a one-time code row. PK: user_uid, SK: otp_id.
// ExpiresAt is stored as Unix seconds so it can be compared in filter expressions.
type OTP struct {
	UserUID   string     `json:"user_uid" dynamodbav:"user_uid"`
	OTPID     string     `json:"otp_id" dynamodbav:"otp_id"`
	Code      string     `json:"-" dynamodbav:"otp_code"`
	Purpose   OTPPurpose `json:"purpose" dynamodbav:"purpose"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	IsUsed    bool       `json:"is_used" dynamodbav:"is_used"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
}

// Valid reports whether the OTP may still be consumed at now. Both times are
// compared at whole seconds, the precision ExpiresAt is stored with.
func (o *OTP) Valid(now time.Time) bool {
	return !o.IsUsed && !o.ExpiresAt.Truncate(time.Second).Before(now.Truncate(time.Second))
}
