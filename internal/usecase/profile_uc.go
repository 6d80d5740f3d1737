package usecase

import (
	"context"

	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

type ProfileUseCase interface {
	ListPsychics(ctx context.Context) ([]*model.PsychicProfile, error)
	GetPsychic(ctx context.Context, psychicID string) (*model.PsychicProfile, error)
	// ToggleFavorite flips membership and reports whether the psychic is a
	// favorite after the call.
	ToggleFavorite(ctx context.Context, clientID, psychicID string) (bool, error)
	ListFavorites(ctx context.Context, clientID string) ([]*model.PsychicProfile, error)
	AddReview(ctx context.Context, author string, rating int, text, psychicID string) (*model.Review, error)
	ListReviews(ctx context.Context, psychicID string) ([]*model.Review, error)
}

type profileUC struct {
	users    repository.UserRepository
	psychics repository.PsychicRepository
	reviews  repository.ReviewRepository

	clientLocks *keyedMutex
	log         *zerolog.Logger
}

func NewProfileUseCase(users repository.UserRepository, psychics repository.PsychicRepository, reviews repository.ReviewRepository, logger *zerolog.Logger) *profileUC {
	l := logger.With().Str("component", "profile").Logger()
	return &profileUC{
		users:       users,
		psychics:    psychics,
		reviews:     reviews,
		clientLocks: newKeyedMutex(),
		log:         &l,
	}
}

func (u *profileUC) ListPsychics(ctx context.Context) ([]*model.PsychicProfile, error) {
	return u.psychics.List(ctx, repository.NoTX)
}

func (u *profileUC) GetPsychic(ctx context.Context, psychicID string) (*model.PsychicProfile, error) {
	return u.psychics.FindByID(ctx, repository.NoTX, psychicID)
}

func (u *profileUC) ToggleFavorite(ctx context.Context, clientID, psychicID string) (bool, error) {
	if _, err := u.psychics.FindByID(ctx, repository.NoTX, psychicID); err != nil {
		return false, err
	}

	lock := u.clientLocks.Lock(clientID)
	defer lock.Unlock()

	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return false, err
	}
	favored := client.ToggleFavorite(psychicID)
	if err := u.users.Save(ctx, repository.NoTX, client); err != nil {
		return false, err
	}
	return favored, nil
}

func (u *profileUC) ListFavorites(ctx context.Context, clientID string) ([]*model.PsychicProfile, error) {
	client, err := u.users.FindByID(ctx, repository.NoTX, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.PsychicProfile, 0, len(client.FavoritePsychicIDs))
	for id := range client.FavoritePsychicIDs {
		p, err := u.psychics.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			// a favorite may point at a removed profile
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (u *profileUC) AddReview(ctx context.Context, author string, rating int, text, psychicID string) (*model.Review, error) {
	psychic, err := u.psychics.FindByID(ctx, repository.NoTX, psychicID)
	if err != nil {
		return nil, err
	}
	review, err := model.NewReview(author, rating, text, psychicID)
	if err != nil {
		return nil, err
	}
	if err := u.reviews.Save(ctx, repository.NoTX, review); err != nil {
		return nil, err
	}

	// Keep the displayed aggregate in step with the review log.
	total := psychic.Rating*float64(psychic.ReviewsCount) + float64(rating)
	psychic.ReviewsCount++
	psychic.Rating = total / float64(psychic.ReviewsCount)
	if err := u.psychics.Save(ctx, repository.NoTX, psychic); err != nil {
		u.log.Error().Err(err).Str("psychic_id", psychicID).Msg("rating aggregate update failed")
	}
	return review, nil
}

func (u *profileUC) ListReviews(ctx context.Context, psychicID string) ([]*model.Review, error) {
	return u.reviews.ListByPsychic(ctx, repository.NoTX, psychicID)
}
