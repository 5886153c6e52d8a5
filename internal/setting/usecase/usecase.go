package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/model"
	"github.com/fekuna/omnipos-pharmacy/internal/setting"
	"github.com/fekuna/omnipos-pharmacy/internal/state"
	"go.uber.org/zap"
)

type settingUseCase struct {
	repo   setting.Repository
	store  *state.Store
	logger logger.ZapLogger
}

func NewSettingUseCase(repo setting.Repository, store *state.Store, log logger.ZapLogger) setting.UseCase {
	return &settingUseCase{repo: repo, store: store, logger: log}
}

func (uc *settingUseCase) GetSetting(ctx context.Context, key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, setting.ErrEmptyKey
	}

	st, err := uc.repo.GetSetting(ctx, key)
	if err != nil {
		uc.logger.Warn("setting lookup failed, using live state", zap.String("key", key), zap.Error(err))
	} else if st != nil {
		return st.Value, true, nil
	}

	var (
		value string
		found bool
	)
	uc.store.View(func(s *model.AppState) {
		value, found = s.Settings[key]
	})
	return value, found, nil
}

func (uc *settingUseCase) SaveSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return setting.ErrEmptyKey
	}
	if err := uc.repo.SaveSetting(ctx, key, value); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return uc.store.Update(func(s *model.AppState) error {
		if s.Settings == nil {
			s.Settings = map[string]string{}
		}
		s.Settings[key] = value
		return nil
	}, state.KeySettings)
}
