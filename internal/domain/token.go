package domain

import "time"

// TokenPair is the most recent access/refresh pair issued to one device of a user.
// PK: user_uid, SK: device_uuid, so a new login from the same device overwrites the row.
type TokenPair struct {
	UserUID            string    `json:"user_uid" dynamodbav:"user_uid"`
	DeviceUUID         string    `json:"device_uuid" dynamodbav:"device_uuid"`
	DeviceName         string    `json:"device_name" dynamodbav:"device_name"`
	AccessToken        string    `json:"access_token" dynamodbav:"access_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry" dynamodbav:"access_token_expiry,unixtime"`
	RefreshToken       string    `json:"refresh_token" dynamodbav:"refresh_token"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry" dynamodbav:"refresh_token_expiry,unixtime"`
	CreatedAt          time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Device is the caller identity declared through the Device-Name and Device-Uuid headers.
type Device struct {
	Name string
	UUID string
}
