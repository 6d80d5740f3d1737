package usecase

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

type PurchaseUseCase interface {
	ListPacks(ctx context.Context) ([]*model.MinutePack, error)
	// Purchase credits the pack's minutes to the client's paid pool and
	// returns the resulting balances.
	Purchase(ctx context.Context, clientID string, packID int) (freeMinutes, paidMinutes int, err error)
	History(ctx context.Context, clientID string) ([]*model.PaymentRecord, error)
}

type purchaseUC struct {
	packs  repository.MinutePackRepository
	ledger LedgerUseCase

	payments repository.PaymentRepository
	log      *zerolog.Logger
}

func NewPurchaseUseCase(packs repository.MinutePackRepository, payments repository.PaymentRepository, ledger LedgerUseCase, logger *zerolog.Logger) *purchaseUC {
	l := logger.With().Str("component", "purchase").Logger()
	return &purchaseUC{packs: packs, payments: payments, ledger: ledger, log: &l}
}

func (u *purchaseUC) ListPacks(ctx context.Context) ([]*model.MinutePack, error) {
	return u.packs.List(ctx, repository.NoTX)
}

func (u *purchaseUC) Purchase(ctx context.Context, clientID string, packID int) (int, int, error) {
	pack, err := u.packs.FindByID(ctx, repository.NoTX, packID)
	if err != nil {
		return 0, 0, err
	}
	free, paid, err := u.ledger.CreditPurchase(ctx, clientID, *pack)
	if err != nil {
		return 0, 0, err
	}
	u.log.Info().
		Str("client_id", clientID).
		Int("pack_id", pack.ID).
		Int("minutes", pack.Minutes).
		Msg("pack purchased")
	return free, paid, nil
}

func (u *purchaseUC) History(ctx context.Context, clientID string) ([]*model.PaymentRecord, error) {
	return u.payments.ListByClient(ctx, repository.NoTX, clientID)
}
