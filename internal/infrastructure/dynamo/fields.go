package dynamo

// DynamoDB attribute names used in key and update expressions across all repos.
const (
	fieldUserUID            = "user_uid"
	fieldUsername           = "username"
	fieldEmail              = "email"
	fieldMobileNumber       = "mobile_number"
	fieldEmailVerified      = "email_verified"
	fieldPhoneVerified      = "phone_verified"
	fieldUpdatedAt          = "updated_at"
	fieldIdentifier         = "identifier"
	fieldOTPID              = "otp_id"
	fieldOTPCode            = "otp_code"
	fieldPurpose            = "purpose"
	fieldExpiresAt          = "expires_at"
	fieldIsUsed             = "is_used"
	fieldDeviceUUID         = "device_uuid"
	fieldAccessToken        = "access_token"
	fieldAccessTokenExpiry  = "access_token_expiry"
	fieldRefreshToken       = "refresh_token"
	fieldRefreshTokenExpiry = "refresh_token_expiry"
	fieldTodoUID            = "todo_uid"
)

// GSI names.
const (
	indexUsername     = "username-index"
	indexEmail        = "email-index"
	indexMobileNumber = "mobile_number-index"
	indexRefreshToken = "refresh_token-index"
	indexUserUID      = "user_uid-index"
)
