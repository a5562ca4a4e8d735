package worker

import (
	"github.com/spec-kit/credential-auth/internal/service"
)

// StartAuditWorker registers audit log handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
