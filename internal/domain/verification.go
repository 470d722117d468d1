package domain

import "time"

// DefaultCodeTTL is how long an issued verification code stays live.
const DefaultCodeTTL = 300 * time.Second

// VerificationCode is the stored form of a code in stores without native key expiry.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationCode struct {
	Email     string `json:"email" dynamodbav:"email"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}

type IssueCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}
