package memory

import (
	"context"
	"sync"
	"time"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

type PaymentRepo struct {
	mu      sync.RWMutex
	records []*model.PaymentRecord
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{}
}

func (r *PaymentRepo) Save(ctx context.Context, qx any, p *model.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.records = append(r.records, &cp)
	return nil
}

func (r *PaymentRepo) ListByClient(ctx context.Context, qx any, clientID string) ([]*model.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.PaymentRecord
	for _, p := range r.records {
		if p.ClientID == clientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *PaymentRepo) SumByPeriod(ctx context.Context, qx any, period string) (int64, error) {
	var since time.Time
	now := time.Now()
	switch period {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return 0, domain.ErrInvalidArgument
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, p := range r.records {
		if p.CreatedAt.After(since) {
			sum += p.Amount
		}
	}
	return sum, nil
}

var _ repository.MinutePackRepository = (*MinutePackRepo)(nil)

// MinutePackRepo serves the fixed pack catalog. Packs are configuration, not
// user data, so the in-memory form is also the production one.
type MinutePackRepo struct {
	packs []model.MinutePack
}

func NewMinutePackRepo(packs []model.MinutePack) *MinutePackRepo {
	if len(packs) == 0 {
		packs = []model.MinutePack{
			{ID: 1, Minutes: 5, Price: 1500},
			{ID: 2, Minutes: 15, Price: 4500, Popular: true},
			{ID: 3, Minutes: 30, Price: 9000},
		}
	}
	return &MinutePackRepo{packs: packs}
}

func (r *MinutePackRepo) FindByID(ctx context.Context, qx any, id int) (*model.MinutePack, error) {
	for _, p := range r.packs {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MinutePackRepo) List(ctx context.Context, qx any) ([]*model.MinutePack, error) {
	out := make([]*model.MinutePack, 0, len(r.packs))
	for i := range r.packs {
		cp := r.packs[i]
		out = append(out, &cp)
	}
	return out, nil
}
