package casdoor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// casdoorAPI is the subset of *casdoorsdk.Client used here.
type casdoorAPI interface {
	AddUser(user *casdoorsdk.User) (bool, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	DeleteUser(user *casdoorsdk.User) (bool, error)
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// IdentityCasdoor implements repositories.IdentityProvider on Casdoor.
type IdentityCasdoor struct {
	client casdoorAPI
	oauth  *oauth2.Config
	config CasdoorConfig
	logger *slog.Logger
}

func NewIdentityCasdoor(config CasdoorConfig, logger *slog.Logger) repositories.IdentityProvider {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newIdentityCasdoor(client, config, logger)
}

func newIdentityCasdoor(client casdoorAPI, config CasdoorConfig, logger *slog.Logger) *IdentityCasdoor {
	endpoint := strings.TrimRight(config.Endpoint, "/")
	return &IdentityCasdoor{
		client: client,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/login/oauth/authorize",
				TokenURL:  endpoint + "/api/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"read"},
		},
		config: config,
		logger: logger.With("component", "casdoor_identity"),
	}
}

// Register creates the Casdoor account. The account name and id are a fresh
// uuid so the email can change later without renaming the account.
func (i *IdentityCasdoor) Register(ctx context.Context, email, password, displayName string) (string, error) {
	id := uuid.NewString()
	user := &casdoorsdk.User{
		Owner:       i.config.OrganizationName,
		Name:        id,
		Id:          id,
		Email:       email,
		Password:    password,
		DisplayName: displayName,
		Type:        "normal-user",
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
	}

	ok, err := i.client.AddUser(user)
	if err != nil {
		return "", fmt.Errorf("failed to register identity: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("failed to register identity %s: %w", email, repositories.ErrDuplicate)
	}

	i.logger.InfoContext(ctx, "Identity registered", "user_id", id)
	return id, nil
}

// SignIn resolves the account by email and runs an OAuth2 password grant.
func (i *IdentityCasdoor) SignIn(ctx context.Context, email, password string) (*repositories.Identity, error) {
	user, err := i.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	if user == nil {
		return nil, repositories.ErrInvalidCredentials
	}

	token, err := i.oauth.PasswordCredentialsToken(ctx, user.Name, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, repositories.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if token.AccessToken == "" {
		return nil, repositories.ErrInvalidCredentials
	}

	identity, err := i.VerifyToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	identity.AccessToken = token.AccessToken
	identity.ExpiresAt = token.Expiry
	return identity, nil
}

// VerifyToken checks the JWT signature against the application certificate.
func (i *IdentityCasdoor) VerifyToken(ctx context.Context, token string) (*repositories.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, repositories.ErrInvalidToken
	}

	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		i.logger.DebugContext(ctx, "Token rejected", "error", err)
		return nil, repositories.ErrInvalidToken
	}

	id := claims.User.Id
	if id == "" {
		id = claims.Id
	}
	if id == "" {
		return nil, repositories.ErrInvalidToken
	}

	return &repositories.Identity{
		ID:    id,
		Email: claims.User.Email,
	}, nil
}

func (i *IdentityCasdoor) Delete(ctx context.Context, id string) error {
	user, err := i.client.GetUserByUserId(id)
	if err != nil {
		return fmt.Errorf("failed to look up identity: %w", err)
	}
	if user == nil {
		return repositories.ErrNotFound
	}

	if _, err := i.client.DeleteUser(user); err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	i.logger.InfoContext(ctx, "Identity deleted", "user_id", id)
	return nil
}
