package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.ConversationRepository = (*ConversationRepo)(nil)

// ConversationRepo persists conversations with their message log in a
// separate messages table, read back in send order (message ids are ULIDs,
// so lexicographic order is creation order).
type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

const uniqueViolation = "23505"

func (r *ConversationRepo) Save(ctx context.Context, qx any, c *model.Conversation) error {
	const q = `
INSERT INTO conversations (
  id, client_id, client_username, psychic_id, psychic_name,
  unread_for_client, unread_for_agent, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  client_username=$3, psychic_name=$5, unread_for_client=$6, unread_for_agent=$7;
`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, c.ID, c.ClientID, c.ClientUsername, c.PsychicID, c.PsychicName,
		c.UnreadForClient, c.UnreadForAgent, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return err
	}
	for i := range c.Messages {
		if err := r.insertMessage(ctx, ex, c.ID, &c.Messages[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConversationRepo) FindByID(ctx context.Context, qx any, id string) (*model.Conversation, error) {
	const q = `
SELECT id, client_id, client_username, psychic_id, psychic_name,
       unread_for_client, unread_for_agent, created_at
  FROM conversations WHERE id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	c, err := scanConversation(ex.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	c.Messages, err = r.loadMessages(ctx, ex, c.ID)
	return c, err
}

func (r *ConversationRepo) FindByPair(ctx context.Context, qx any, clientID, psychicID string) (*model.Conversation, error) {
	const q = `
SELECT id, client_id, client_username, psychic_id, psychic_name,
       unread_for_client, unread_for_agent, created_at
  FROM conversations WHERE client_id=$1 AND psychic_id=$2;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	c, err := scanConversation(ex.QueryRow(ctx, q, clientID, psychicID))
	if err != nil {
		return nil, err
	}
	c.Messages, err = r.loadMessages(ctx, ex, c.ID)
	return c, err
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	var exists bool
	if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id=$1);`, conversationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return r.insertMessage(ctx, ex, conversationID, m)
}

func (r *ConversationRepo) SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error {
	var q string
	switch viewer {
	case model.RoleClient:
		q = `UPDATE conversations SET unread_for_client=$2 WHERE id=$1;`
	case model.RoleAgent:
		q = `UPDATE conversations SET unread_for_agent=$2 WHERE id=$1;`
	default:
		return domain.ErrInvalidArgument
	}
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, conversationID, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConversationRepo) ListForClient(ctx context.Context, qx any, clientID string) ([]*model.Conversation, error) {
	const q = `
SELECT id, client_id, client_username, psychic_id, psychic_name,
       unread_for_client, unread_for_agent, created_at
  FROM conversations WHERE client_id=$1 ORDER BY created_at;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, ex, q, clientID)
}

func (r *ConversationRepo) ListForPsychics(ctx context.Context, qx any, psychicIDs []string) ([]*model.Conversation, error) {
	const q = `
SELECT id, client_id, client_username, psychic_id, psychic_name,
       unread_for_client, unread_for_agent, created_at
  FROM conversations WHERE psychic_id = ANY($1) ORDER BY created_at;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, ex, q, psychicIDs)
}

func (r *ConversationRepo) list(ctx context.Context, ex executor, q string, arg any) ([]*model.Conversation, error) {
	rows, err := ex.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		if c.Messages, err = r.loadMessages(ctx, ex, c.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ConversationRepo) insertMessage(ctx context.Context, ex executor, conversationID string, m *model.Message) error {
	const q = `
INSERT INTO messages (id, conversation_id, sender, body, sent_at)
VALUES ($1,$2,$3,$4,$5) ON CONFLICT (id) DO NOTHING;`
	_, err := ex.Exec(ctx, q, m.ID, conversationID, string(m.Sender), m.Text, m.Timestamp)
	return err
}

func (r *ConversationRepo) loadMessages(ctx context.Context, ex executor, conversationID string) ([]model.Message, error) {
	const q = `SELECT id, sender, body, sent_at FROM messages WHERE conversation_id=$1 ORDER BY id;`
	rows, err := ex.Query(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var sender string
		if err := rows.Scan(&m.ID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Sender = model.Role(sender)
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	if err := row.Scan(&c.ID, &c.ClientID, &c.ClientUsername, &c.PsychicID, &c.PsychicName,
		&c.UnreadForClient, &c.UnreadForAgent, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
