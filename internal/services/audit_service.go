package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"fintra/internal/logger"
	"fintra/internal/models"
)

// auditService records audit events without blocking request handling.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log writes an audit entry. Failures are logged and swallowed so auditing
// never fails the operation being audited.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Get()

	var changesJSON string
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			log.Warnw("failed to marshal audit changes", "error", err)
		} else {
			changesJSON = string(raw)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to write audit log", "error", err,
			"action", action, "resource_type", resourceType)
	}
}
