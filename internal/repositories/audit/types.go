package audit

import (
	"github.com/nclabs/communitybot/internal/models"
)

// InsertInput contains parameters for writing an audit log row
type InsertInput struct {
	Log *models.AuditLog
}
