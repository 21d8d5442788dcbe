package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// Authentication methods reported in user-created events.
const (
	MethodPassword = "password"
	MethodWallet   = "wallet"
)

// AuthService handles authentication business logic: credential
// verification, the wallet challenge flow and session issuance.
type AuthService struct {
	store     ports.UserStore
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	nonceLog  ports.NonceLog
	log       *zap.Logger

	nonceTTL time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store ports.UserStore,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	nonceLog ports.NonceLog,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		nonceLog:  nonceLog,
		log:       log,
		nonceTTL:  15 * time.Minute,
	}
}

// SignUp registers a new email/password account with role USER and
// returns it together with a freshly issued session token.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*core.User, string, error) {
	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil, "", core.ErrEmailTaken
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &core.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         core.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrEmailTaken) {
			return nil, "", core.ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	s.publishUserCreated(ctx, user, MethodPassword)

	token, err := s.tokenizer.IssueSession(user.Identity())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return user, token, nil
}

// Login verifies an email/password pair and issues a session token.
// Unknown email and wrong password fail identically so callers cannot
// probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, "", core.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", core.ErrInvalidCredentials
	}

	token, err := s.tokenizer.IssueSession(user.Identity())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return user, token, nil
}

// IssueNonce generates a fresh challenge nonce: 16 random bytes hex
// encoded, valid for 15 minutes. The nonce is handed to the caller and
// only logged server-side for audit; verification does not consume it.
func (s *AuthService) IssueNonce(ctx context.Context) (core.Nonce, error) {
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return core.Nonce{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	nonce := core.Nonce{
		Value:     hex.EncodeToString(nonceBytes),
		ExpiresAt: time.Now().Add(s.nonceTTL),
	}

	if err := s.nonceLog.Record(ctx, nonce); err != nil {
		s.log.Warn("failed to record issued nonce", zap.Error(err))
	}

	return nonce, nil
}

// WalletLogin verifies a personal_sign signature over the canonical
// challenge message for the given nonce. A valid signature from an
// unknown address provisions a new USER account on the spot: wallet
// possession is sufficient proof of a new identity.
func (s *AuthService) WalletLogin(ctx context.Context, walletAddress, nonce, signature string) (*core.User, string, error) {
	recovered, err := recoverSigner(core.ChallengeMessage(nonce), signature)
	if err != nil {
		return nil, "", err
	}
	if !strings.EqualFold(recovered, walletAddress) {
		return nil, "", core.ErrInvalidSignature
	}

	user, err := s.store.FindByWallet(ctx, walletAddress)
	if err != nil {
		if !errors.Is(err, core.ErrUserNotFound) {
			return nil, "", fmt.Errorf("failed to look up wallet: %w", err)
		}

		now := time.Now()
		user = &core.User{
			ID:            uuid.New().String(),
			WalletAddress: walletAddress,
			Role:          core.RoleUser,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}

		s.publishUserCreated(ctx, user, MethodWallet)
	}

	token, err := s.tokenizer.IssueSession(user.Identity())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return user, token, nil
}

// recoverSigner recovers the address that signed the message with the
// EIP-191 personal_sign scheme.
func recoverSigner(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", core.ErrInvalidSignature
	}
	if len(sig) != 65 {
		return "", core.ErrInvalidSignature
	}

	// Wallets produce V as 27/28; go-ethereum expects 0/1.
	if sig[64] >= 27 {
		sig = append([]byte{}, sig...)
		sig[64] -= 27
	}

	pubKey, err := ethcrypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", core.ErrInvalidSignature
	}

	return ethcrypto.PubkeyToAddress(*pubKey).Hex(), nil
}

// Authenticate resolves the caller behind a session token. The role
// encoded in the token is advisory only: the current role is re-read
// from the store so a demotion or promotion after issuance takes
// effect on the next request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.Identity, error) {
	identity, err := s.tokenizer.VerifySession(token)
	if err != nil {
		// Expired and tampered tokens surface the same way.
		return core.Identity{}, core.ErrInvalidToken
	}

	user, err := s.store.FindByID(ctx, identity.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.Identity{}, core.ErrUserNotFound
		}
		return core.Identity{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	return user.Identity(), nil
}

// CurrentUser returns the full account record behind an identity.
func (s *AuthService) CurrentUser(ctx context.Context, subjectID string) (*core.User, error) {
	return s.store.FindByID(ctx, subjectID)
}

// ListUsers returns all accounts.
func (s *AuthService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.store.List(ctx)
}

// UpdateUserRole changes an account's role and notifies the rest of
// the marketplace.
func (s *AuthService) UpdateUserRole(ctx context.Context, id string, role core.Role) (*core.User, error) {
	user, err := s.store.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishRoleChanged(ctx, user.ID, user.Role); err != nil {
		s.log.Warn("failed to publish role-changed event",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// DeleteUser removes an account.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *AuthService) publishUserCreated(ctx context.Context, user *core.User, method string) {
	// Publishing is best effort; the account is already committed.
	if err := s.eventPub.PublishUserCreated(ctx, user, method); err != nil {
		s.log.Warn("failed to publish user-created event",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}
