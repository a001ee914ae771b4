package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crypto-pulse-service/internal/application/alerts"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/domain/interfaces"
	"crypto-pulse-service/internal/infrastructure/logging"
)

// AddAlertInput son los datos que el usuario aporta al crear una alerta
type AddAlertInput struct {
	CoinID      string
	CoinName    string
	CoinSymbol  string
	CoinImage   string
	TargetPrice float64
	Condition   entities.AlertCondition
}

// AlertService owns the persisted alert list. Every mutation runs
// load, modify and save under one mutex so concurrent checks and edits
// never lose an update.
type AlertService struct {
	mu        sync.Mutex
	store     interfaces.KeyValueStore
	evaluator *alerts.Evaluator
	notifier  interfaces.Notifier
	logger    logging.AlertLogger
	now       func() time.Time
	newID     func(coinID string) string
}

func NewAlertService(store interfaces.KeyValueStore, evaluator *alerts.Evaluator, notifier interfaces.Notifier) *AlertService {
	return &AlertService{
		store:     store,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logging.Alerts(),
		now:       time.Now,
		newID: func(coinID string) string {
			return fmt.Sprintf("%s-%s", coinID, uuid.NewString())
		},
	}
}

// List returns every alert in creation order
func (s *AlertService) List(ctx context.Context) ([]entities.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Active returns the alerts still waiting for their price
func (s *AlertService) Active(ctx context.Context) ([]entities.PriceAlert, error) {
	return s.filter(ctx, false)
}

// Triggered returns the alerts that already fired
func (s *AlertService) Triggered(ctx context.Context) ([]entities.PriceAlert, error) {
	return s.filter(ctx, true)
}

func (s *AlertService) Add(ctx context.Context, in AddAlertInput) (entities.PriceAlert, error) {
	alert := entities.PriceAlert{
		CoinID:      strings.TrimSpace(in.CoinID),
		CoinName:    in.CoinName,
		CoinSymbol:  in.CoinSymbol,
		CoinImage:   in.CoinImage,
		TargetPrice: in.TargetPrice,
		Condition:   in.Condition,
	}
	if err := alert.Validate(); err != nil {
		s.logger.ValidationFailed(ctx, in.CoinID, err.Error())
		return entities.PriceAlert{}, fmt.Errorf("%w: %w", ErrInvalidAlert, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return entities.PriceAlert{}, err
	}

	alert.ID = s.newID(alert.CoinID)
	alert.CreatedAt = s.now()
	list = append(list, alert)

	if err := saveJSON(ctx, s.store, AlertsKey, list); err != nil {
		return entities.PriceAlert{}, err
	}

	s.logger.AlertCreated(ctx, alert.ID, alert.CoinID, string(alert.Condition), alert.TargetPrice)
	return alert, nil
}

func (s *AlertService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	found := false
	for _, a := range list {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}

	if err := saveJSON(ctx, s.store, AlertsKey, kept); err != nil {
		return err
	}
	s.logger.AlertRemoved(ctx, id)
	return nil
}

// ClearTriggered drops every fired alert and reports how many were removed
func (s *AlertService) ClearTriggered(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]entities.PriceAlert, 0, len(list))
	for _, a := range list {
		if !a.Triggered {
			kept = append(kept, a)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := saveJSON(ctx, s.store, AlertsKey, kept); err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "Triggered alerts cleared", logging.Fields{"removed": removed})
	return removed, nil
}

// Check evaluates the stored alerts against prices, persists the flipped
// ones and hands each new notification to the notifier. A notifier error
// is logged; the triggered state is already saved at that point.
func (s *AlertService) Check(ctx context.Context, prices entities.PriceSnapshot) ([]entities.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	updated, notifications := s.evaluator.Evaluate(ctx, list, prices)
	if len(notifications) == 0 {
		return nil, nil
	}

	if err := saveJSON(ctx, s.store, AlertsKey, updated); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		for _, n := range notifications {
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.logger.WarnWithError(ctx, "Alert notification failed", err, logging.Fields{
					"alert_id": n.AlertID,
				})
			}
		}
	}
	return notifications, nil
}

func (s *AlertService) filter(ctx context.Context, triggered bool) ([]entities.PriceAlert, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entities.PriceAlert, 0, len(list))
	for _, a := range list {
		if a.Triggered == triggered {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AlertService) load(ctx context.Context) ([]entities.PriceAlert, error) {
	var list []entities.PriceAlert
	ok, err := loadJSON(ctx, s.store, AlertsKey, &list)
	if err != nil {
		return nil, err
	}
	if !ok || list == nil {
		return []entities.PriceAlert{}, nil
	}
	return list, nil
}
