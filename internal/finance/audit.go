package finance

import (
	"family-portal/internal/models"

	"gorm.io/gorm"
)

// audit appends an audit row inside the caller's transaction so the
// trail commits or rolls back together with the mutation it describes.
func audit(tx *gorm.DB, actorID uint, action, targetType, targetID, details string) error {
	return tx.Create(&models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}).Error
}
