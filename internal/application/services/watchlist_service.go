package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"crypto-pulse-service/internal/domain/interfaces"
)

// WatchlistService persists the ordered set of favourite coin ids
type WatchlistService struct {
	mu    sync.Mutex
	store interfaces.KeyValueStore
}

func NewWatchlistService(store interfaces.KeyValueStore) *WatchlistService {
	return &WatchlistService{store: store}
}

func (s *WatchlistService) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add appends coinID unless it is already present
func (s *WatchlistService) Add(ctx context.Context, coinID string) ([]string, error) {
	return s.update(ctx, coinID, func(list []string, id string) []string {
		if slices.Contains(list, id) {
			return list
		}
		return append(list, id)
	})
}

func (s *WatchlistService) Remove(ctx context.Context, coinID string) ([]string, error) {
	return s.update(ctx, coinID, without)
}

// Toggle removes coinID if present, otherwise appends it
func (s *WatchlistService) Toggle(ctx context.Context, coinID string) ([]string, error) {
	return s.update(ctx, coinID, func(list []string, id string) []string {
		if slices.Contains(list, id) {
			return without(list, id)
		}
		return append(list, id)
	})
}

func (s *WatchlistService) Contains(ctx context.Context, coinID string) (bool, error) {
	list, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(list, strings.TrimSpace(coinID)), nil
}

func (s *WatchlistService) update(ctx context.Context, coinID string, apply func(list []string, id string) []string) ([]string, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, ErrEmptyCoinID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	list = apply(list, coinID)

	if err := saveJSON(ctx, s.store, WatchlistKey, list); err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	return list, nil
}

func without(list []string, id string) []string {
	return slices.DeleteFunc(list, func(v string) bool { return v == id })
}

func (s *WatchlistService) load(ctx context.Context) ([]string, error) {
	var list []string
	ok, err := loadJSON(ctx, s.store, WatchlistKey, &list)
	if err != nil {
		return nil, err
	}
	if !ok || list == nil {
		return []string{}, nil
	}
	return list, nil
}
