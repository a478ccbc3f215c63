package services

import (
	"context"
	"log"
	"strings"
	"time"

	goamiddleware "goa.design/goa/v3/middleware"

	"leadcapture/internal/config"
	"leadcapture/internal/domain"
	"leadcapture/internal/metrics"
)

// Lead intake result messages
const (
	LeadCreatedMessage = "Lead successfully created in CRM"
)

// Forwarder pushes accepted leads to a downstream CRM
type Forwarder interface {
	Forward(ctx context.Context, lead *domain.CRMLead) error
}

// Notifier announces accepted leads to the sales team
type Notifier interface {
	NotifyNewLead(lead *domain.CRMLead) error
}

// LeadService implements the local lead intake route
type LeadService struct {
	cfg       *config.IntakeConfig
	forwarder Forwarder
	notifier  Notifier
	now       func() time.Time
}

// NewLeadService creates a new lead service. forwarder and notifier may be nil.
func NewLeadService(cfg *config.IntakeConfig, forwarder Forwarder, notifier Notifier) *LeadService {
	return &LeadService{
		cfg:       cfg,
		forwarder: forwarder,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Create validates the required keys of an intake payload and answers with
// the CRM record it would create.
func (s *LeadService) Create(ctx context.Context, p domain.IntakePayload) (*domain.IntakeResult, error) {
	reqID := requestID(ctx)
	log.Printf("[LEADS] Create request: request_id=%s, email=%s, company=%s", reqID, p.String("email"), p.String("company"))

	if missing := p.Missing(domain.RequiredIntakeFields...); len(missing) > 0 {
		log.Printf("[LEADS] Create rejected: request_id=%s, missing=%s", reqID, strings.Join(missing, ","))
		metrics.RecordLeadIntake("rejected")
		return nil, LeadsMissingFields(missing)
	}

	lead := domain.NewCRMLead(p, s.cfg.AssignedTo, s.now())

	// Stand-in for CRM latency
	if err := sleep(ctx, s.cfg.SimulatedDelay); err != nil {
		log.Printf("[LEADS] Create aborted: request_id=%s, lead_id=%s: %v", reqID, lead.LeadID, err)
		metrics.RecordLeadIntake("failed")
		return nil, LeadsInternal("lead submission cancelled", err)
	}

	if s.forwarder != nil {
		if err := s.forwarder.Forward(ctx, lead); err != nil {
			log.Printf("[LEADS] Create failed: request_id=%s, lead_id=%s: forward error: %v", reqID, lead.LeadID, err)
			metrics.RecordLeadIntake("failed")
			return nil, LeadsInternal("CRM API request failed", err)
		}
	}

	log.Printf("[LEADS] Create successful: request_id=%s, lead_id=%s, assigned_to=%s", reqID, lead.LeadID, lead.AssignedTo)
	metrics.RecordLeadIntake("accepted")

	if s.notifier != nil {
		go func() {
			if err := s.notifier.NotifyNewLead(lead); err != nil {
				log.Printf("[LEADS] Warning: failed to send lead notification: %v", err)
			}
		}()
	}

	return &domain.IntakeResult{
		Success:    true,
		LeadID:     lead.LeadID,
		Message:    LeadCreatedMessage,
		AssignedTo: lead.AssignedTo,
		NextSteps:  s.cfg.NextSteps,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(goamiddleware.RequestIDKey).(string); ok {
		return id
	}
	return "-"
}
