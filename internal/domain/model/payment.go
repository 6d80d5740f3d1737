package model

import (
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
)

// MinutePack is a purchasable bundle of paid minutes.
type MinutePack struct {
	ID      int
	Minutes int
	Price   int64 // euro cents
	Popular bool
}

// PaymentRecord is one line of a client's payment history. The processor
// integration is external; a record is appended once a purchase event lands.
type PaymentRecord struct {
	ID          string
	ClientID    string
	PackID      int
	Minutes     int
	Amount      int64
	Description string
	CreatedAt   time.Time
}

func NewPaymentRecord(clientID string, pack MinutePack, description string) (*PaymentRecord, error) {
	if clientID == "" || pack.Minutes <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &PaymentRecord{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		PackID:      pack.ID,
		Minutes:     pack.Minutes,
		Amount:      pack.Price,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}
