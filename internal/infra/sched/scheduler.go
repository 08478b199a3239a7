package sched

import (
	"context"
	"log"
	"time"

	"vigil/internal/infra/joblock"
	"vigil/internal/usecase"
)

const (
	detectionLease  = "detection-sweep"
	escalationLease = "escalation-sweep"
)

// Scheduler drives the periodic sweeps: violation detection, escalation
// dispatch and action execution. Each sweep runs under a lease so that a
// fleet of instances performs one sweep per interval between them.
type Scheduler struct {
	Detector *usecase.ViolationDetector
	Engine   *usecase.EscalationRuleEngine
	Executor *usecase.EscalationActionExecutor
	Locker   joblock.Locker

	DetectionInterval  time.Duration
	EscalationInterval time.Duration
}

func New(detector *usecase.ViolationDetector, engine *usecase.EscalationRuleEngine, executor *usecase.EscalationActionExecutor, locker joblock.Locker, detectionInterval, escalationInterval time.Duration) *Scheduler {
	if detectionInterval <= 0 {
		detectionInterval = time.Minute
	}
	if escalationInterval <= 0 {
		escalationInterval = time.Minute
	}
	return &Scheduler{
		Detector:           detector,
		Engine:             engine,
		Executor:           executor,
		Locker:             locker,
		DetectionInterval:  detectionInterval,
		EscalationInterval: escalationInterval,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	detectTicker := time.NewTicker(s.DetectionInterval)
	defer detectTicker.Stop()
	escalateTicker := time.NewTicker(s.EscalationInterval)
	defer escalateTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-detectTicker.C:
			s.RunDetection(ctx)
		case <-escalateTicker.C:
			s.RunEscalation(ctx)
		}
	}
}

// RunDetection performs one detection sweep across all tenants.
func (s *Scheduler) RunDetection(ctx context.Context) {
	release, ok, err := s.Locker.Acquire(ctx, detectionLease, s.DetectionInterval)
	if err != nil {
		log.Printf("detection sweep: acquire lease: %v", err)
		return
	}
	if !ok {
		return
	}
	defer release()

	res, err := s.Detector.Run(ctx, "")
	if err != nil {
		log.Printf("detection sweep: %v", err)
		return
	}
	for _, itemErr := range res.ItemErrors {
		log.Printf("detection sweep: %v", itemErr)
	}
	if res.Created > 0 || res.Resolved > 0 {
		log.Printf("detection sweep: scanned=%d created=%d resolved=%d skipped=%d",
			res.TasksScanned, res.Created, res.Resolved, res.Skipped)
	}
}

// RunEscalation performs one escalation sweep: dispatch due levels, then
// execute whatever is runnable.
func (s *Scheduler) RunEscalation(ctx context.Context) {
	release, ok, err := s.Locker.Acquire(ctx, escalationLease, s.EscalationInterval)
	if err != nil {
		log.Printf("escalation sweep: acquire lease: %v", err)
		return
	}
	if !ok {
		return
	}
	defer release()

	engineRes, err := s.Engine.Run(ctx, "")
	if err != nil {
		log.Printf("escalation sweep: engine: %v", err)
		return
	}
	for _, itemErr := range engineRes.ItemErrors {
		log.Printf("escalation sweep: %v", itemErr)
	}
	if engineRes.Dispatched > 0 || engineRes.Advanced > 0 {
		log.Printf("escalation sweep: examined=%d dispatched=%d advanced=%d skipped=%d",
			engineRes.Examined, engineRes.Dispatched, engineRes.Advanced, engineRes.Skipped)
	}

	execRes, err := s.Executor.Run(ctx, "")
	if err != nil {
		log.Printf("escalation sweep: executor: %v", err)
		return
	}
	for _, itemErr := range execRes.ItemErrors {
		log.Printf("escalation sweep: %v", itemErr)
	}
	if execRes.Executed > 0 {
		log.Printf("escalation sweep: executed=%d succeeded=%d failed=%d exhausted=%d",
			execRes.Executed, execRes.Succeeded, execRes.Failed, execRes.Exhausted)
	}
}
