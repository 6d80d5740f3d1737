package usecase

import (
	"context"
	"fmt"
	"time"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// PoolSnapshot is the balance captured when a session is reserved, converted
// to seconds. The debit happens at commit time because actual usage may be
// less than the full pool.
type PoolSnapshot struct {
	FreeSeconds int
	PaidSeconds int
}

// LedgerUseCase is the sole owner of mutation to client minute pools and
// agent productivity stats.
type LedgerUseCase interface {
	ReserveSession(ctx context.Context, clientID string) (PoolSnapshot, error)
	// CommitUsage rounds each pool's seconds up to whole minutes
	// independently, debits the client (clamped at zero) and credits the
	// owning agent's cumulative and same-day stats. Zero usage is a no-op.
	CommitUsage(ctx context.Context, clientID, agentID string, freeSecondsUsed, paidSecondsUsed int) (model.UsageSplit, error)
	CreditPurchase(ctx context.Context, clientID string, pack model.MinutePack) (freeMinutes, paidMinutes int, err error)
	CreditFreeGrant(ctx context.Context, clientID string, minutes int) error
	Balances(ctx context.Context, clientID string) (freeMinutes, paidMinutes int, err error)
}

type ledgerUC struct {
	users    repository.UserRepository
	stats    repository.AgentStatsRepository
	payments repository.PaymentRepository
	txm      repository.TransactionManager

	clientLocks *keyedMutex
	agentLocks  *keyedMutex
	log         *zerolog.Logger
}

func NewLedgerUseCase(users repository.UserRepository, stats repository.AgentStatsRepository, payments repository.PaymentRepository, logger *zerolog.Logger) *ledgerUC {
	l := logger.With().Str("component", "ledger").Logger()
	return &ledgerUC{
		users:       users,
		stats:       stats,
		payments:    payments,
		clientLocks: newKeyedMutex(),
		agentLocks:  newKeyedMutex(),
		log:         &l,
	}
}

// SetTxManager enables transactional writes where a repository backend
// supports them. The in-memory backends run without one.
func (u *ledgerUC) SetTxManager(txm repository.TransactionManager) { u.txm = txm }

func (u *ledgerUC) ReserveSession(ctx context.Context, clientID string) (PoolSnapshot, error) {
	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return PoolSnapshot{}, err
	}
	if client.TotalMinutes() < 1 {
		return PoolSnapshot{}, domain.ErrInsufficientBalance
	}
	return PoolSnapshot{
		FreeSeconds: client.FreeMinutes * 60,
		PaidSeconds: client.PaidMinutes * 60,
	}, nil
}

func (u *ledgerUC) CommitUsage(ctx context.Context, clientID, agentID string, freeSecondsUsed, paidSecondsUsed int) (model.UsageSplit, error) {
	split := model.UsageSplit{
		FreeMinutesUsed: model.CeilMinutes(freeSecondsUsed),
		PaidMinutesUsed: model.CeilMinutes(paidSecondsUsed),
	}
	if split.FreeMinutesUsed == 0 && split.PaidMinutesUsed == 0 {
		return split, nil
	}

	if err := u.debitClient(ctx, clientID, split); err != nil {
		return model.UsageSplit{}, err
	}
	if agentID != "" {
		if err := u.creditAgent(ctx, agentID, split); err != nil {
			// The client debit stands; agent stats are reporting data and a
			// failed write there must not undo billing.
			u.log.Error().Err(err).Str("agent_id", agentID).Msg("agent stats credit failed")
		}
	}
	metrics.AddMinutesBilled(split.FreeMinutesUsed, split.PaidMinutesUsed)
	return split, nil
}

func (u *ledgerUC) debitClient(ctx context.Context, clientID string, split model.UsageSplit) error {
	lock := u.clientLocks.Lock(clientID)
	defer lock.Unlock()

	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return err
	}
	free := client.FreeMinutes - split.FreeMinutesUsed
	if free < 0 {
		free = 0
	}
	paid := client.PaidMinutes - split.PaidMinutesUsed
	if paid < 0 {
		paid = 0
	}
	if err := u.users.UpdateBalances(ctx, repository.NoTX, clientID, free, paid); err != nil {
		return fmt.Errorf("debit client: %w", err)
	}
	return nil
}

func (u *ledgerUC) creditAgent(ctx context.Context, agentID string, split model.UsageSplit) error {
	lock := u.agentLocks.Lock(agentID)
	defer lock.Unlock()

	stats, err := u.stats.FindByAgent(ctx, repository.NoTX, agentID)
	if err != nil {
		if err != domain.ErrNotFound {
			return err
		}
		// Rows are written when the agent is created; this backfills
		// agents that predate that.
		stats = model.NewAgentStats(agentID)
	}
	stats.Record(model.ActivityDate(time.Now()), split)
	return u.stats.Save(ctx, repository.NoTX, stats)
}

func (u *ledgerUC) CreditPurchase(ctx context.Context, clientID string, pack model.MinutePack) (int, int, error) {
	lock := u.clientLocks.Lock(clientID)
	defer lock.Unlock()

	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return 0, 0, err
	}
	paid := client.PaidMinutes + pack.Minutes
	record, err := model.NewPaymentRecord(clientID, pack, fmt.Sprintf("Pack %d minutes", pack.Minutes))
	if err != nil {
		return 0, 0, err
	}

	// Balance credit and payment record land together or not at all.
	apply := func(ctx context.Context, qx repository.Tx) error {
		if err := u.users.UpdateBalances(ctx, qx, clientID, client.FreeMinutes, paid); err != nil {
			return err
		}
		return u.payments.Save(ctx, qx, record)
	}
	if u.txm != nil {
		err = u.txm.WithTx(ctx, pgx.TxOptions{}, apply)
	} else {
		err = apply(ctx, repository.NoTX)
	}
	if err != nil {
		return 0, 0, err
	}
	metrics.IncPurchase(pack.Minutes)
	return client.FreeMinutes, paid, nil
}

func (u *ledgerUC) CreditFreeGrant(ctx context.Context, clientID string, minutes int) error {
	if minutes <= 0 {
		return domain.ErrInvalidArgument
	}
	lock := u.clientLocks.Lock(clientID)
	defer lock.Unlock()

	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return err
	}
	return u.users.UpdateBalances(ctx, repository.NoTX, clientID, client.FreeMinutes+minutes, client.PaidMinutes)
}

func (u *ledgerUC) Balances(ctx context.Context, clientID string) (int, int, error) {
	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return 0, 0, err
	}
	return client.FreeMinutes, client.PaidMinutes, nil
}
