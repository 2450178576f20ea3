package services

import (
	"context"
	"fmt"
	"time"

	"navswap/models"
	"navswap/store"
	"navswap/utils"
)

// faultPriorities maps fault levels to dispatch priority, highest first.
var faultPriorities = map[string]int{
	"critical": 1,
	"high":     2,
	"medium":   3,
	"low":      4,
}

// TicketService opens fault tickets against batteries, stations and swaps.
type TicketService struct {
	store store.Store
}

func NewTicketService(st store.Store) *TicketService {
	return &TicketService{store: st}
}

// ReportFault opens a ticket numbered TKT-YYYYMMDD-XXXX. A battery fault
// also flags the battery itself so it stops circulating.
func (s *TicketService) ReportFault(ctx context.Context, entityType, entityID, faultLevel, title, description string) (*models.Ticket, error) {
	priority, ok := faultPriorities[faultLevel]
	if !ok {
		return nil, fmt.Errorf("unknown fault level %q", faultLevel)
	}

	code, err := utils.GenerateCode(2)
	if err != nil {
		return nil, err
	}
	ticket := &models.Ticket{
		TicketNumber: fmt.Sprintf("TKT-%s-%s", time.Now().Format("20060102"), code),
		Status:       "open",
		EntityType:   entityType,
		EntityID:     entityID,
		FaultLevel:   faultLevel,
		Title:        title,
		Description:  description,
		Priority:     priority,
	}

	id, err := s.store.InsertTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	ticket.ID = id

	if entityType == "battery" {
		err := s.store.UpdateBattery(ctx, entityID, map[string]any{"status": "faulty"})
		if err != nil {
			return nil, err
		}
	}
	return ticket, nil
}
