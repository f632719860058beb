package authinfra

import (
	"context"

	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/logx"
)

// LogxAuditService writes authentication audit events to the structured log.
type LogxAuditService struct{}

var _ auth.AuditService = (*LogxAuditService)(nil)

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID, email string, success bool) {
	entry := logx.WithFields(logx.Fields{
		"event":     "login_attempt",
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
		"email":     email,
		"success":   success,
	})
	if success {
		entry.Info("User logged in")
	} else {
		entry.Warn("Login failed")
	}
}

func (s *LogxAuditService) LogLogout(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) {
	logx.WithFields(logx.Fields{
		"event":     "logout",
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
	}).Info("User logged out")
}

func (s *LogxAuditService) LogTokenRefresh(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) {
	logx.WithFields(logx.Fields{
		"event":     "token_refresh",
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
	}).Info("Session refreshed")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID, method string) {
	logx.WithFields(logx.Fields{
		"event":     "account_created",
		"user_id":   userID.String(),
		"tenant_id": tenantID.String(),
		"method":    method,
	}).Info("Account created")
}
