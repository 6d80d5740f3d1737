package memory

import (
	"context"
	"sync"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
)

var _ repository.ConversationRepository = (*ConversationRepo)(nil)

type ConversationRepo struct {
	mu     sync.RWMutex
	byID   map[string]*model.Conversation
	byPair map[string]string // clientID+"/"+psychicID -> conversationID
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{
		byID:   make(map[string]*model.Conversation),
		byPair: make(map[string]string),
	}
}

func pairKey(clientID, psychicID string) string { return clientID + "/" + psychicID }

func copyConversation(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	return &cp
}

func (r *ConversationRepo) Save(ctx context.Context, qx any, c *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(c.ClientID, c.PsychicID)
	if existing, ok := r.byPair[key]; ok && existing != c.ID {
		return domain.ErrAlreadyExists
	}
	r.byID[c.ID] = copyConversation(c)
	r.byPair[key] = c.ID
	return nil
}

func (r *ConversationRepo) FindByID(ctx context.Context, qx any, id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyConversation(c), nil
}

func (r *ConversationRepo) FindByPair(ctx context.Context, qx any, clientID, psychicID string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[pairKey(clientID, psychicID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyConversation(r.byID[id]), nil
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Append(m)
	return nil
}

func (r *ConversationRepo) SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	switch viewer {
	case model.RoleClient:
		c.UnreadForClient = value
	case model.RoleAgent:
		c.UnreadForAgent = value
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r *ConversationRepo) ListForClient(ctx context.Context, qx any, clientID string) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Conversation
	for _, c := range r.byID {
		if c.ClientID == clientID {
			out = append(out, copyConversation(c))
		}
	}
	return out, nil
}

func (r *ConversationRepo) ListForPsychics(ctx context.Context, qx any, psychicIDs []string) ([]*model.Conversation, error) {
	owned := make(map[string]struct{}, len(psychicIDs))
	for _, id := range psychicIDs {
		owned[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Conversation
	for _, c := range r.byID {
		if _, ok := owned[c.PsychicID]; ok {
			out = append(out, copyConversation(c))
		}
	}
	return out, nil
}

var _ repository.AdminConversationRepository = (*AdminConversationRepo)(nil)

type AdminConversationRepo struct {
	mu          sync.RWMutex
	byID        map[string]*model.AdminConversation
	byRecipient map[string]string
}

func NewAdminConversationRepo() *AdminConversationRepo {
	return &AdminConversationRepo{
		byID:        make(map[string]*model.AdminConversation),
		byRecipient: make(map[string]string),
	}
}

func copyAdminConversation(c *model.AdminConversation) *model.AdminConversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	return &cp
}

func (r *AdminConversationRepo) Save(ctx context.Context, qx any, c *model.AdminConversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byRecipient[c.RecipientID]; ok && existing != c.ID {
		return domain.ErrAlreadyExists
	}
	r.byID[c.ID] = copyAdminConversation(c)
	r.byRecipient[c.RecipientID] = c.ID
	return nil
}

func (r *AdminConversationRepo) FindByID(ctx context.Context, qx any, id string) (*model.AdminConversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAdminConversation(c), nil
}

func (r *AdminConversationRepo) FindByRecipient(ctx context.Context, qx any, recipientID string) (*model.AdminConversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRecipient[recipientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAdminConversation(r.byID[id]), nil
}

func (r *AdminConversationRepo) AppendMessage(ctx context.Context, qx any, conversationID string, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Append(m)
	return nil
}

func (r *AdminConversationRepo) SetUnread(ctx context.Context, qx any, conversationID string, viewer model.Role, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	switch viewer {
	case model.RoleAgent:
		c.UnreadForAgent = value
	case model.RoleAdmin:
		c.UnreadForAdmin = value
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r *AdminConversationRepo) List(ctx context.Context, qx any) ([]*model.AdminConversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.AdminConversation
	for _, c := range r.byID {
		out = append(out, copyAdminConversation(c))
	}
	return out, nil
}

func (r *AdminConversationRepo) ListForAgent(ctx context.Context, qx any, agentID string) ([]*model.AdminConversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.AdminConversation
	for _, recipient := range []string{agentID, model.RecipientBroadcast} {
		if id, ok := r.byRecipient[recipient]; ok {
			out = append(out, copyAdminConversation(r.byID[id]))
		}
	}
	return out, nil
}
