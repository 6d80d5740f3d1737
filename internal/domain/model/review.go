package model

import (
	"time"

	"oraclia-chat-platform/internal/domain"

	"github.com/google/uuid"
)

// Review is client feedback on a psychic. Pure data, no core coupling.
type Review struct {
	ID        string
	Author    string
	Rating    int
	Text      string
	PsychicID string
	Date      time.Time
}

func NewReview(author string, rating int, text, psychicID string) (*Review, error) {
	if author == "" || rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidArgument
	}
	return &Review{
		ID:        uuid.NewString(),
		Author:    author,
		Rating:    rating,
		Text:      text,
		PsychicID: psychicID,
		Date:      time.Now(),
	}, nil
}
