package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/gcssytemsuser/socialai-backend/configs"
	"github.com/gcssytemsuser/socialai-backend/internal/models"
	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
	"github.com/gcssytemsuser/socialai-backend/internal/repository"
	"github.com/gcssytemsuser/socialai-backend/internal/transfer"
	"github.com/gcssytemsuser/socialai-backend/pkg/utils"
)

type AccountService interface {
	Connect(ctx context.Context, userID int64, ac *transfer.AccountConnection) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewAccountService(cfg config.Config, sa repository.SocialAccountRepository) AccountService {
	return &accountService{cfg: cfg, sa: sa}
}

// Connect stores an opaque platform credential. Any previously active
// account for the same (user, platform) pair is deactivated first so at most
// one stays eligible for dispatch.
func (s *accountService) Connect(ctx context.Context, userID int64, ac *transfer.AccountConnection) (int64, error) {
	if ac == nil || ac.AccessToken == "" {
		err := errors.New("access token cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}

	platform, err := platforms.Parse(ac.Platform)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	existing, err := s.sa.FindActive(ctx, userID, string(platform))
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if err := s.sa.Deactivate(ctx, existing.ID); err != nil {
			return 0, fmt.Errorf("error replacing connected account: %w", err)
		}
	}

	encryptedToken, err := utils.Encrypt([]byte(ac.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	account := models.SocialAccount{
		UserID:      userID,
		Platform:    string(platform),
		AccountID:   ac.AccountID,
		AccountName: ac.AccountName,
		AccessToken: encryptedToken,
	}

	id, err := s.sa.Create(ctx, nil, &account)
	if err != nil {
		return 0, fmt.Errorf("error saving account: %w", err)
	}
	return id, nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts")
	}

	// tokens never leave the service
	for _, account := range accounts {
		account.AccessToken = ""
	}
	return accounts, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) error {
	if userID == 0 || accountID == 0 {
		err := errors.New("account id is not valid")
		slog.Info(err.Error())
		return err
	}

	exists, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !exists {
		err = errors.New("account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.sa.Deactivate(ctx, accountID)
}
