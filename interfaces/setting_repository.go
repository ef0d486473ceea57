package interfaces

import (
	"context"

	"github.com/customeros/dmarcstore/internal/models"
)

type SettingRepository interface {
	Value(ctx context.Context, userID int64, key string) (string, error)
	List(ctx context.Context, userID int64) ([]models.Setting, error)
	Save(ctx context.Context, userID int64, key, value string) error
}
