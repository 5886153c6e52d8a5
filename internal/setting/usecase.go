package setting

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-pharmacy/internal/model"
)

var ErrEmptyKey = errors.New("setting key is required")

type Repository interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	SaveSetting(ctx context.Context, key, value string) error
}

type UseCase interface {
	// GetSetting returns the stored value, falling back to the live state
	// when the gateway has none or fails. found is false if neither knows
	// the key.
	GetSetting(ctx context.Context, key string) (value string, found bool, err error)
	SaveSetting(ctx context.Context, key, value string) error
}
