package sla

import (
	"testing"
	"time"

	"github.com/greenhouse-project/support-service/internal/domain"
)

func TestFor(t *testing.T) {
	tests := []struct {
		priority       domain.TicketPriority
		wantResponse   time.Duration
		wantResolution time.Duration
	}{
		{domain.TicketPriorityCritical, 1 * time.Hour, 4 * time.Hour},
		{domain.TicketPriorityHigh, 4 * time.Hour, 24 * time.Hour},
		{domain.TicketPriorityMedium, 8 * time.Hour, 72 * time.Hour},
		{domain.TicketPriorityLow, 24 * time.Hour, 168 * time.Hour},
		// Unknown priorities fall back to medium.
		{domain.TicketPriority("urgent"), 8 * time.Hour, 72 * time.Hour},
		{domain.TicketPriority(""), 8 * time.Hour, 72 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			got := For(tt.priority)
			if got.ResponseTime != tt.wantResponse {
				t.Errorf("For(%q).ResponseTime = %v, want %v", tt.priority, got.ResponseTime, tt.wantResponse)
			}
			if got.ResolutionTime != tt.wantResolution {
				t.Errorf("For(%q).ResolutionTime = %v, want %v", tt.priority, got.ResolutionTime, tt.wantResolution)
			}
		})
	}
}

func TestCalculateDeadlines(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	got := CalculateDeadlines(createdAt, For(domain.TicketPriorityCritical))

	if want := createdAt.Add(1 * time.Hour); !got.Response.Equal(want) {
		t.Errorf("Response = %v, want %v", got.Response, want)
	}
	if want := createdAt.Add(4 * time.Hour); !got.Resolution.Equal(want) {
		t.Errorf("Resolution = %v, want %v", got.Resolution, want)
	}
}
