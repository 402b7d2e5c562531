package dynamo

// DynamoDB attribute names used in key conditions and update expressions.
const (
	fieldEmail            = "email"
	fieldAccountID        = "account_id"
	fieldSessionID        = "session_id"
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldUpdatedAt        = "updated_at"

	indexAccountID    = "account_id-index"
	indexRefreshToken = "refresh_token-index"
)
