package common

const (
	// AuthorizationHeaderName carries the bearer credential on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "bearer"

	// TokenType is reported to clients alongside every issued access token.
	TokenType = "bearer"

	// RequestIDHeaderName is echoed on every response.
	RequestIDHeaderName = "X-Request-ID"
)
