// Package sla defines the service-level-agreement policy table and
// deadline arithmetic. It is pure: no storage, no clock of its own.
package sla

import (
	"time"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// Policy holds the response/resolution targets for one priority level.
type Policy struct {
	ResponseTime   time.Duration
	ResolutionTime time.Duration
}

// Deadlines are the absolute targets computed for a ticket.
type Deadlines struct {
	Response   time.Time
	Resolution time.Time
}

var policies = map[domain.TicketPriority]Policy{
	domain.TicketPriorityCritical: {ResponseTime: 1 * time.Hour, ResolutionTime: 4 * time.Hour},
	domain.TicketPriorityHigh:     {ResponseTime: 4 * time.Hour, ResolutionTime: 24 * time.Hour},
	domain.TicketPriorityMedium:   {ResponseTime: 8 * time.Hour, ResolutionTime: 72 * time.Hour},
	domain.TicketPriorityLow:      {ResponseTime: 24 * time.Hour, ResolutionTime: 168 * time.Hour},
}

// For returns the policy for a priority. Unknown priorities fall back to
// medium, matching the observed behavior of the support workflow.
func For(priority domain.TicketPriority) Policy {
	if p, ok := policies[priority]; ok {
		return p
	}
	return policies[domain.TicketPriorityMedium]
}

// CalculateDeadlines applies the policy to a ticket creation time.
func CalculateDeadlines(createdAt time.Time, policy Policy) Deadlines {
	return Deadlines{
		Response:   createdAt.Add(policy.ResponseTime),
		Resolution: createdAt.Add(policy.ResolutionTime),
	}
}
