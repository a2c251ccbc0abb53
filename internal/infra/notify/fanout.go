package notify

import (
	"context"
	"errors"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/usecase/commands"
)

// Fanout publishes to every configured publisher and joins their errors.
type Fanout struct {
	publishers []commands.TicketPublisher
}

func NewFanout(publishers ...commands.TicketPublisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) PublishTicket(ctx context.Context, t kitchen.Ticket) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishTicket(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
