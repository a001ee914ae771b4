package services

import (
	"context"
	"sync"

	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
)

// ThemeService persiste la preferencia light/dark; sin valor guardado es light
type ThemeService struct {
	mu    sync.Mutex
	store interfaces.KeyValueStore
}

func NewThemeService(store interfaces.KeyValueStore) *ThemeService {
	return &ThemeService{store: store}
}

func (s *ThemeService) Get(ctx context.Context) (entities.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ThemeService) Set(ctx context.Context, theme entities.Theme) (entities.Theme, error) {
	theme, err := entities.ParseTheme(string(theme))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := saveJSON(ctx, s.store, ThemeKey, theme); err != nil {
		return "", err
	}
	return theme, nil
}

func (s *ThemeService) Toggle(ctx context.Context) (entities.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	next := current.Toggle()
	if err := saveJSON(ctx, s.store, ThemeKey, next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *ThemeService) load(ctx context.Context) (entities.Theme, error) {
	var raw string
	ok, err := loadJSON(ctx, s.store, ThemeKey, &raw)
	if err != nil {
		return "", err
	}
	if !ok {
		return entities.ThemeLight, nil
	}
	theme, err := entities.ParseTheme(raw)
	if err != nil {
		return entities.ThemeLight, nil
	}
	return theme, nil
}
