package domain

import "time"

// User is the account record. UserUID never changes after registration.
type User struct {
	UserUID       string    `json:"uid" dynamodbav:"user_uid"`
	Username      string    `json:"username" dynamodbav:"username"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	Email         string    `json:"email" dynamodbav:"email"`
	MobileNumber  string    `json:"mobile_number" dynamodbav:"mobile_number"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,alphanum"`
	FirstName    string `json:"first_name" validate:"required,min=2,alpha"`
	LastName     string `json:"last_name" validate:"required,min=2,alpha"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobile_number" validate:"required,mobile_e164"`
	Password     string `json:"password" validate:"required,min=6,password_policy"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"` // username or email
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyOTPRequest struct {
	UserID string `json:"user_id"`
	OTP    string `json:"otp"`
	Type   string `json:"type"`
}

type ResendOTPRequest struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}
