package backup

import (
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

func toBackupResponse(b *entity.Backup) *dto.BackupResponse {
	if b == nil {
		return nil
	}
	return &dto.BackupResponse{
		ID:          b.ID,
		Type:        string(b.Type),
		EntityID:    b.ScopeEntityID,
		EntityName:  b.ScopeEntityName,
		Filename:    b.Filename,
		SizeBytes:   b.SizeBytes,
		CreatedAt:   b.CreatedAt,
		Description: b.Description,
	}
}

func toBackupResponses(list []*entity.Backup) []*dto.BackupResponse {
	out := make([]*dto.BackupResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBackupResponse(b))
	}
	return out
}
