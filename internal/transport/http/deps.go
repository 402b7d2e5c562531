package http

import (
	"github.com/kinboost-api/internal/application/account"
	"github.com/kinboost-api/internal/application/identity"
	"github.com/kinboost-api/internal/application/otp"
	"github.com/kinboost-api/internal/application/shop"
	"github.com/kinboost-api/internal/infrastructure/metrics"
)

// Deps holds the application services the router exposes.
type Deps struct {
	OTP      otp.Service
	Accounts account.Service
	Identity identity.Service
	Shops    shop.Service
	Metrics  *metrics.Metrics // nil disables instrumentation and /metrics
}
