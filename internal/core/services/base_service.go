package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/SscSPs/factor_ops_app/internal/platform/analytics"
	"github.com/SscSPs/factor_ops_app/internal/platform/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	CompanyAuthorizer portssvc.CompanyAuthorizerSvc
	Metrics           *metrics.Recorder
	Analytics         *analytics.Client
	Clock             func() time.Time
}

// Option is a functional option shared by the services embedding BaseService.
type Option func(*BaseService)

// WithCompanyAuthorizer sets the authorizer used to check company roles.
func WithCompanyAuthorizer(authorizer portssvc.CompanyAuthorizerSvc) Option {
	return func(b *BaseService) {
		b.CompanyAuthorizer = authorizer
	}
}

// WithMetrics sets the Prometheus recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(b *BaseService) {
		b.Metrics = recorder
	}
}

// WithAnalytics sets the product analytics client.
func WithAnalytics(client *analytics.Client) Option {
	return func(b *BaseService) {
		b.Analytics = client
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *BaseService) {
		b.Clock = clock
	}
}

func (s *BaseService) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
}

// Now returns the current time in UTC.
func (s *BaseService) Now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeUser checks if a user has the required role in a company.
// Without an authorizer every request is denied.
func (s *BaseService) AuthorizeUser(ctx context.Context, userID, companyID string, requiredRole domain.UserCompanyRole) error {
	if s.CompanyAuthorizer == nil {
		s.LogError(ctx, apperrors.ErrForbidden, "No company authorizer configured",
			slog.String("user_id", userID),
			slog.String("company_id", companyID))
		return fmt.Errorf("%w: authorization unavailable", apperrors.ErrForbidden)
	}
	return s.CompanyAuthorizer.AuthorizeUserAction(ctx, userID, companyID, requiredRole)
}

// track sends an analytics event when a client is configured.
func (s *BaseService) track(userID, event string, props map[string]any) {
	s.Analytics.Track(userID, event, props)
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
