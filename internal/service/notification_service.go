package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/pkg/jobs"
)

const (
	notificationJobType = "absence_notification"

	// notificationBuffer bounds queued deliveries; Notify fails fast beyond it.
	notificationBuffer = 256

	// notificationRetention is how long a delivery state stays queryable.
	notificationRetention = 7 * 24 * time.Hour

	notificationPruneEvery = time.Hour
)

// NotificationTarget identifies the absent student a parent is told about.
type NotificationTarget struct {
	Key         string
	Date        string
	StudentName string
	ParentPhone string
}

// NotificationService simulates best-effort parent notification for absences.
// Delivery runs on a worker queue with no automatic retry; state lives in
// memory only and expires after notificationRetention.
type NotificationService struct {
	queue   *jobs.Queue
	delay   time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.RWMutex
	states     map[string]notificationState
	lastPruned time.Time
}

type notificationState struct {
	state   string
	updated time.Time
}

// NewNotificationService constructs the service and its worker queue.
func NewNotificationService(delay time.Duration, workers int, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay < 0 {
		delay = 0
	}
	svc := &NotificationService{
		delay:   delay,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]notificationState),
	}
	svc.queue = jobs.NewQueue("absence-notifications", svc.deliver, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: notificationBuffer,
		NoRetry:    true,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the workers; deliveries in flight are marked failed.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify marks the target as sending and enqueues delivery without blocking.
// A full queue marks the notification failed; it can be resent later.
func (s *NotificationService) Notify(target NotificationTarget) error {
	key := notificationKey(target.Key, target.Date)
	s.setState(key, models.NotificationSending)
	if err := s.queue.TryEnqueue(jobs.Job{Type: notificationJobType, Payload: target}); err != nil {
		s.setState(key, models.NotificationFailed)
		s.metrics.RecordNotification(models.NotificationFailed)
		s.logger.Warn("absence notification not queued", zap.String("identity_key", target.Key), zap.String("date", target.Date), zap.Error(err))
		return err
	}
	return nil
}

// State returns the delivery state for a student on a date, "" when none was sent.
func (s *NotificationService) State(key, date string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[notificationKey(key, date)].state
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	target, ok := job.Payload.(NotificationTarget)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	key := notificationKey(target.Key, target.Date)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.setState(key, models.NotificationFailed)
		s.metrics.RecordNotification(models.NotificationFailed)
		return ctx.Err()
	case <-timer.C:
	}

	s.setState(key, models.NotificationDelivered)
	s.metrics.RecordNotification(models.NotificationDelivered)
	s.logger.Info("absence notification delivered",
		zap.String("job_id", job.ID),
		zap.String("identity_key", target.Key),
		zap.String("date", target.Date),
		zap.Bool("has_parent_phone", target.ParentPhone != ""),
	)
	return nil
}

func (s *NotificationService) setState(key, state string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = notificationState{state: state, updated: now}
	if now.Sub(s.lastPruned) < notificationPruneEvery {
		return
	}
	s.lastPruned = now
	for k, st := range s.states {
		if now.Sub(st.updated) > notificationRetention {
			delete(s.states, k)
		}
	}
}

func notificationKey(key, date string) string {
	return key + "|" + date
}
