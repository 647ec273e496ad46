package siteconfig

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

// Well-known configuration keys.
const (
	KeyEnableLocalAuth    = "enable_local_auth"
	KeyEnableRegistration = "enable_registration"
	KeySiteName           = "site_name"
)

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SiteConfigKey(name string) string
}

// ServiceParams groups dependencies for the site config service.
type ServiceParams struct {
	Repo     Repository
	Cache    cache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

// Service exposes typed access to runtime configuration.
type Service interface {
	GetString(ctx context.Context, key, fallback string) string
	GetBool(ctx context.Context, key string, fallback bool) bool
	GetInt(ctx context.Context, key string, fallback int) int
	List(ctx context.Context) ([]models.SiteConfig, error)
	Set(ctx context.Context, params SetParams) (*models.SiteConfig, error)
	Delete(ctx context.Context, key string) error
}

// SetParams carries an admin write to a config key.
type SetParams struct {
	Key         string
	Value       string
	ValueType   enums.ConfigValueType
	Description *string
	UpdatedBy   uuid.UUID
}

type service struct {
	repo     Repository
	cache    cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService wires site config dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "site config repository required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheTTL: ttl,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetString(ctx context.Context, key, fallback string) string {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return fallback
	}
	return value
}

func (s *service) GetBool(ctx context.Context, key string, fallback bool) bool {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *service) GetInt(ctx context.Context, key string, fallback int) int {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func (s *service) List(ctx context.Context) ([]models.SiteConfig, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list site config")
	}
	return rows, nil
}

func (s *service) Set(ctx context.Context, params SetParams) (*models.SiteConfig, error) {
	key := strings.TrimSpace(params.Key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config key required")
	}
	valueType := params.ValueType
	if valueType == "" {
		valueType = enums.ConfigValueTypeString
	}
	if !valueType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid config value type")
	}
	if err := validateValue(params.Value, valueType); err != nil {
		return nil, err
	}

	cfg := &models.SiteConfig{
		Key:         key,
		Value:       params.Value,
		ValueType:   valueType,
		Description: params.Description,
	}
	if params.UpdatedBy != uuid.Nil {
		updatedBy := params.UpdatedBy
		cfg.UpdatedBy = &updatedBy
	}

	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save site config")
	}
	s.invalidate(ctx, key)
	return cfg, nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "config key required")
	}
	found, err := s.repo.Delete(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete site config")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "config key not found")
	}
	s.invalidate(ctx, key)
	return nil
}

// lookup resolves a key through the cache first, then the database. The second
// return value reports whether a stored value exists.
func (s *service) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cache.SiteConfigKey(key)); err == nil {
			return cached, true
		}
	}

	cfg, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && s.logg != nil {
			s.logg.Error(ctx, "site_config.lookup_failed", err)
		}
		return "", false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.SiteConfigKey(key), cfg.Value, s.cacheTTL); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "site_config.cache_write_failed")
		}
	}
	return cfg.Value, true
}

func (s *service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.SiteConfigKey(key)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "site_config.cache_invalidate_failed")
	}
}

func validateValue(value string, valueType enums.ConfigValueType) error {
	switch valueType {
	case enums.ConfigValueTypeBool:
		if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "value must be a boolean")
		}
	case enums.ConfigValueTypeInt:
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "value must be an integer")
		}
	}
	return nil
}
