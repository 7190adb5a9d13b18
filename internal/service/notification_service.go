package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/config"
	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/events"
	"github.com/greenhouse-project/support-service/internal/notify"
)

// NotificationService turns domain events into outbound messages: email to
// the client on lifecycle changes, WhatsApp to the engineer for urgent
// tickets. Handlers run on the dispatcher's background workers and report
// delivery failures to the log only.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleTicketRated)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}

	if payload.ClientEmail != "" {
		subject := fmt.Sprintf("Ticket %s recibido: %s", event.TicketID, payload.Title)
		body := fmt.Sprintf("<p>Hola %s,</p><p>Hemos recibido tu solicitud <b>%s</b> y la atenderemos pronto.</p>",
			payload.ClientName, event.TicketID)
		n.send(ctx, event, func(c context.Context) error {
			return n.notifier.SendEmail(c, payload.ClientEmail, subject, body)
		})
	}

	if urgentPriority(payload.Priority) && payload.EngineerPhone != "" {
		msg := fmt.Sprintf("Nuevo ticket %s (%s): %s", event.TicketID, payload.Priority, payload.Title)
		n.send(ctx, event, func(c context.Context) error {
			return n.notifier.SendWhatsApp(c, payload.EngineerPhone, msg)
		})
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	if payload.EngineerEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Ticket %s asignado", event.TicketID)
	body := fmt.Sprintf("<p>%s, se te ha asignado el ticket <b>%s</b>: %s (prioridad %s).</p>",
		payload.EngineerName, event.TicketID, payload.Title, payload.Priority)
	n.send(ctx, event, func(c context.Context) error {
		return n.notifier.SendEmail(c, payload.EngineerEmail, subject, body)
	})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.ClientEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Ticket %s actualizado", event.TicketID)
	body := fmt.Sprintf("<p>Tu ticket <b>%s</b> pasó de %s a %s.</p>",
		event.TicketID, payload.OldStatus, payload.NewStatus)
	n.send(ctx, event, func(c context.Context) error {
		return n.notifier.SendEmail(c, payload.ClientEmail, subject, body)
	})
	return nil
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok || payload.ClientEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Ticket %s resuelto", event.TicketID)
	body := fmt.Sprintf("<p>Hola %s,</p><p>Tu ticket <b>%s</b> ha sido resuelto.</p><p>%s</p>"+
		"<p>Cuéntanos cómo lo hicimos calificando la atención.</p>",
		payload.ClientName, event.TicketID, payload.ResolutionNotes)
	n.send(ctx, event, func(c context.Context) error {
		return n.notifier.SendEmail(c, payload.ClientEmail, subject, body)
	})
	return nil
}

func (n *NotificationService) handleTicketRated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ticket rated",
		zap.String("ticket_id", event.TicketID),
		zap.Int("rating", payload.Rating),
		zap.String("source", payload.Source))
	return nil
}

func (n *NotificationService) send(ctx context.Context, event events.Event, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func urgentPriority(p domain.TicketPriority) bool {
	return p == domain.TicketPriorityHigh || p == domain.TicketPriorityCritical
}
