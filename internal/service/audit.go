package service

import (
	"encoding/json"
	"strconv"

	"jndata/internal/models"

	"gorm.io/datatypes"
)

// Actor identifies the admin performing an action, for the audit log.
type Actor struct {
	ID uint
	IP string
}

func auditEntry(actor Actor, action, resource string, id uint, meta map[string]interface{}) *models.AuditLog {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: strconv.FormatUint(uint64(id), 10),
		IP:         actor.IP,
	}
	if actor.ID != 0 {
		adminID := actor.ID
		entry.AdminID = &adminID
	}
	if meta != nil {
		b, _ := json.Marshal(meta)
		entry.Metadata = datatypes.JSON(b)
	}
	return entry
}
