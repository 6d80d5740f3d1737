package redis

import (
	"context"
	"encoding/json"
	"time"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/infra/security"
)

// SessionCache mirrors active session snapshots so operators can inspect
// live sessions across instances. The in-process clock stays authoritative;
// cache misses are never an error for the metering path.
//
// Snapshots include balance figures, so a configured cipher seals them
// before they hit redis. A nil cipher stores plain JSON.
type SessionCache struct {
	client *Client
	ttl    time.Duration
	enc    *security.EncryptionService
}

func NewSessionCache(client *Client, ttl time.Duration, enc *security.EncryptionService) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
		enc:    enc,
	}
}

func (c *SessionCache) StoreSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	payload := string(data)
	if c.enc != nil {
		payload, err = c.enc.Encrypt(payload)
		if err != nil {
			return err
		}
	}
	return c.client.Set(ctx, "session:"+session.ID, payload, c.ttl)
}

func (c *SessionCache) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	payload, err := c.client.Get(ctx, "session:"+sessionID)
	if err != nil {
		return nil, err
	}
	if c.enc != nil {
		payload, err = c.enc.Decrypt(payload)
		if err != nil {
			return nil, err
		}
	}
	var session model.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *SessionCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, "session:"+sessionID)
}

func (c *SessionCache) ExtendSession(ctx context.Context, sessionID string) error {
	return c.client.Expire(ctx, "session:"+sessionID, c.ttl)
}
