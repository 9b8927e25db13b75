package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
	"quick-jot/quickjot/broker"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
)

const defaultEventBatchSize = 100

type EventHandlerServiceInterface interface {
	Start()
	Stop()
	ProcessPendingEvents() (int, error)
}

// Deliverer hands an event message to locally connected clients.
type Deliverer interface {
	Deliver(msg *models.StandardMessage)
}

// EventHandlerService drains the outbox. Events go to the broker when one is
// configured, otherwise straight to the local hub.
type EventHandlerService struct {
	db        *database.Database
	publisher broker.Publisher
	local     Deliverer
	interval  time.Duration
	batchSize int
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

func NewEventHandlerService(db *database.Database, publisher broker.Publisher, local Deliverer, interval time.Duration, logger *zap.Logger) *EventHandlerService {
	if interval <= 0 {
		interval = time.Second
	}
	return &EventHandlerService{
		db:        db,
		publisher: publisher,
		local:     local,
		interval:  interval,
		batchSize: defaultEventBatchSize,
		logger:    logger,
	}
}

func (s *EventHandlerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stopChan, s.done)
}

// Stop halts polling and waits for the in-flight batch to finish.
func (s *EventHandlerService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *EventHandlerService) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.ProcessPendingEvents(); err != nil {
				s.logger.Error("Failed to process pending events", zap.Error(err))
			}
		}
	}
}

// ProcessPendingEvents dispatches one batch of undispatched events in
// timestamp order and returns how many were dispatched.
func (s *EventHandlerService) ProcessPendingEvents() (int, error) {
	var events []models.Event
	if err := s.db.DB.Where("dispatched = ?", false).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).
		Limit(s.batchSize).
		Find(&events).Error; err != nil {
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}

	dispatched := 0
	for _, event := range events {
		if err := s.dispatchEvent(event); err != nil {
			// Later events wait so per-owner order is preserved.
			return dispatched, fmt.Errorf("dispatch event %s: %w", event.ID, err)
		}
		dispatched++
	}
	if dispatched > 0 {
		s.logger.Debug("Dispatched events", zap.Int("count", dispatched))
	}
	return dispatched, nil
}

func (s *EventHandlerService) dispatchEvent(event models.Event) error {
	envelope := models.NewEventEnvelope(event)

	switch {
	case s.publisher != nil:
		data, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(broker.Subject(event.Event), data); err != nil {
			return err
		}
	case s.local != nil:
		msg, err := envelope.ToMessage()
		if err != nil {
			return err
		}
		s.local.Deliver(msg)
	}

	now := time.Now().UTC()
	return s.db.DB.Model(&models.Event{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
		"dispatched":    true,
		"dispatched_at": now,
		"status":        models.EventStatusDispatched,
	}).Error
}
