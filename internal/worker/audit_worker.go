package worker

import (
	"github.com/civic-desk/complaint-service/internal/service"
)

// StartAuditWorker registers the complaint audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
