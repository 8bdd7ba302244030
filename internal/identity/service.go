// Package identity implements the portal's identity collaborator: account
// storage, anonymous provisioning, password and pre-provisioned credential
// sign-in, and session-change notifications.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jun/formdesk/internal/crypto"
	"github.com/jun/formdesk/internal/model"
)

const emailIndex = "email-index"

var (
	// ErrInvalidCredentials is returned for a wrong password, an unknown
	// email, or a bad credential token. Callers must not learn which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountNotFound is returned when looking up a missing account.
	ErrAccountNotFound = errors.New("account not found")
)

// Principal identifies a signed-in user to the rest of the system.
type Principal struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// Service manages accounts and the session-change feed.
// If client is nil, it uses an in-memory map (for tests and dev mode).
type Service struct {
	client    *dynamodb.Client
	tableName string
	encryptor crypto.Encryptor

	// In-memory fallback
	mu       sync.RWMutex
	accounts map[string]model.UserAccount
	byEmail  map[string]string

	lmu          sync.Mutex
	listeners    map[int]func(*Principal)
	nextListener int
}

// NewService creates a new identity Service.
func NewService(client *dynamodb.Client, tableName string, encryptor crypto.Encryptor) *Service {
	return &Service{
		client:    client,
		tableName: tableName,
		encryptor: encryptor,
		accounts:  make(map[string]model.UserAccount),
		byEmail:   make(map[string]string),
		listeners: make(map[int]func(*Principal)),
	}
}

// Subscribe registers a session-change listener and returns a release
// function. Listeners receive the new principal on sign-in and nil on
// sign-out, synchronously on the calling flow.
func (s *Service) Subscribe(fn func(*Principal)) func() {
	s.lmu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Service) notify(p *Principal) {
	s.lmu.Lock()
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// SignInAnonymously provisions a fresh anonymous account so the portal has a
// stable user reference before any explicit login.
func (s *Service) SignInAnonymously(ctx context.Context) (*Principal, error) {
	acct := model.UserAccount{
		UserID:    fmt.Sprintf("anon-%s", uuid.New().String()),
		Anonymous: true,
		CreatedAt: time.Now(),
	}

	if err := s.putAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed to provision anonymous account: %w", err)
	}

	p := &Principal{UserID: acct.UserID, Anonymous: true}
	s.notify(p)
	return p, nil
}

// CreateAccount registers a new email/password account and signs it in.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.getAccountByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	acct := model.UserAccount{
		UserID:       uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now(),
	}

	if err := s.putAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	p := &Principal{UserID: acct.UserID, Email: acct.Email}
	s.notify(p)
	return p, nil
}

// SignInWithPassword verifies an email/password pair.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acct, err := s.getAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !verifyPassword(password, acct.PasswordHash, acct.PasswordSalt) {
		return nil, ErrInvalidCredentials
	}

	p := &Principal{UserID: acct.UserID, Email: acct.Email}
	s.notify(p)
	return p, nil
}

// ProvisionCredential generates an opaque sign-in token for an existing
// account and stores it encrypted. The token format is "<userID>.<secret>".
func (s *Service) ProvisionCredential(ctx context.Context, userID string) (string, error) {
	acct, err := s.GetAccount(ctx, userID)
	if err != nil {
		return "", err
	}

	secret := uuid.New().String()
	encrypted, err := s.encryptor.Encrypt(ctx, secret)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt credential: %w", err)
	}

	acct.EncryptedCredential = encrypted
	if err := s.putAccount(ctx, *acct); err != nil {
		return "", fmt.Errorf("failed to save credential: %w", err)
	}

	return fmt.Sprintf("%s.%s", userID, secret), nil
}

// SignInWithCredential verifies a pre-provisioned credential token.
func (s *Service) SignInWithCredential(ctx context.Context, token string) (*Principal, error) {
	userID, secret, ok := strings.Cut(token, ".")
	if !ok {
		return nil, ErrInvalidCredentials
	}

	acct, err := s.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if acct.EncryptedCredential == "" {
		return nil, ErrInvalidCredentials
	}

	stored, err := s.encryptor.Decrypt(ctx, acct.EncryptedCredential)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) != 1 {
		return nil, ErrInvalidCredentials
	}

	p := &Principal{UserID: acct.UserID, Email: acct.Email, Anonymous: acct.Anonymous}
	s.notify(p)
	return p, nil
}

// SignOut ends the current session. Listeners receive a nil principal.
func (s *Service) SignOut(ctx context.Context) error {
	s.notify(nil)
	return nil
}

// GetAccount retrieves an account by user ID.
func (s *Service) GetAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	if s.client == nil {
		s.mu.RLock()
		acct, ok := s.accounts[userID]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrAccountNotFound
		}
		return &acct, nil
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, ErrAccountNotFound
	}

	var acct model.UserAccount
	if err := attributevalue.UnmarshalMap(out.Item, &acct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &acct, nil
}

func (s *Service) getAccountByEmail(ctx context.Context, email string) (*model.UserAccount, error) {
	if s.client == nil {
		s.mu.RLock()
		id, ok := s.byEmail[email]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrAccountNotFound
		}
		return s.GetAccount(ctx, id)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrAccountNotFound
	}

	var acct model.UserAccount
	if err := attributevalue.UnmarshalMap(out.Items[0], &acct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &acct, nil
}

func (s *Service) putAccount(ctx context.Context, acct model.UserAccount) error {
	if s.client == nil {
		s.mu.Lock()
		s.accounts[acct.UserID] = acct
		if acct.Email != "" {
			s.byEmail[acct.Email] = acct.UserID
		}
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save account to DynamoDB: %w", err)
	}
	return nil
}
