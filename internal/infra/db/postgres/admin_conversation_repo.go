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

var _ repository.AdminConversationRepository = (*AdminConversationRepo)(nil)

// AdminConversationRepo shares the messages table with regular conversations;
// channel rows live in admin_conversations keyed by recipient.
type AdminConversationRepo struct {
	pool *pgxpool.Pool
}

func NewAdminConversationRepo(pool *pgxpool.Pool) *AdminConversationRepo {
	return &AdminConversationRepo{pool: pool}
}

func (r *AdminConversationRepo) Save(ctx context.Context, qx any, c *model.AdminConversation) error {
	const q = `
INSERT INTO admin_conversations (
  id, recipient_id, recipient_name, unread_for_agent, unread_for_admin, created_at
) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  recipient_name=$3, unread_for_agent=$4, unread_for_admin=$5;
`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, c.ID, c.RecipientID, c.RecipientName, c.UnreadForAgent, c.UnreadForAdmin, c.CreatedAt)
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

func (r *AdminConversationRepo) FindByID(ctx context.Context, qx any, id string) (*model.AdminConversation, error) {
	const q = `
SELECT id, recipient_id, recipient_name, unread_for_agent, unread_for_admin, created_at
  FROM admin_conversations WHERE id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	c, err := scanAdminConversation(ex.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	c.Messages, err = r.loadMessages(ctx, ex, c.ID)
	return c, err
}

func (r *AdminConversationRepo) FindByRecipient(ctx context.Context, qx any, recipientID string) (*model.AdminConversation, error) {
	const q = `
SELECT id, recipient_id, recipient_name, unread_for_agent, unread_for_admin, created_at
  FROM admin_conversations WHERE recipient_id=$1;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	c, err := scanAdminConversation(ex.QueryRow(ctx, q, recipientID))
	if err != nil {
		return nil, err
	}
	c.Messages, err = r.loadMessages(ctx, ex, c.ID)
	return c, err
}

func (r *AdminConversationRepo) AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error {
	ex, err := pick(r.pool, qx)
	if err != nil {
		return err
	}
	var exists bool
	if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM admin_conversations WHERE id=$1);`, conversationID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return r.insertMessage(ctx, ex, conversationID, m)
}

func (r *AdminConversationRepo) SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error {
	var q string
	switch viewer {
	case model.RoleAgent:
		q = `UPDATE admin_conversations SET unread_for_agent=$2 WHERE id=$1;`
	case model.RoleAdmin:
		q = `UPDATE admin_conversations SET unread_for_admin=$2 WHERE id=$1;`
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

func (r *AdminConversationRepo) List(ctx context.Context, qx any) ([]*model.AdminConversation, error) {
	const q = `
SELECT id, recipient_id, recipient_name, unread_for_agent, unread_for_admin, created_at
  FROM admin_conversations ORDER BY created_at;`
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, ex, rows)
}

func (r *AdminConversationRepo) ListForAgent(ctx context.Context, qx any, agentID string) ([]*model.AdminConversation, error) {
	const q = `
SELECT id, recipient_id, recipient_name, unread_for_agent, unread_for_admin, created_at
  FROM admin_conversations WHERE recipient_id IN ($1, $2)
 ORDER BY recipient_id = $2;` // direct channel first
	ex, err := pick(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, agentID, model.RecipientBroadcast)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, ex, rows)
}

func (r *AdminConversationRepo) collect(ctx context.Context, ex executor, rows pgx.Rows) ([]*model.AdminConversation, error) {
	defer rows.Close()
	var out []*model.AdminConversation
	for rows.Next() {
		c, err := scanAdminConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var err error
	for _, c := range out {
		if c.Messages, err = r.loadMessages(ctx, ex, c.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *AdminConversationRepo) insertMessage(ctx context.Context, ex executor, conversationID string, m *model.Message) error {
	const q = `
INSERT INTO messages (id, conversation_id, sender, body, sent_at)
VALUES ($1,$2,$3,$4,$5) ON CONFLICT (id) DO NOTHING;`
	_, err := ex.Exec(ctx, q, m.ID, conversationID, string(m.Sender), m.Text, m.Timestamp)
	return err
}

func (r *AdminConversationRepo) loadMessages(ctx context.Context, ex executor, conversationID string) ([]model.Message, error) {
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

func scanAdminConversation(row pgx.Row) (*model.AdminConversation, error) {
	var c model.AdminConversation
	if err := row.Scan(&c.ID, &c.RecipientID, &c.RecipientName, &c.UnreadForAgent, &c.UnreadForAdmin, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
