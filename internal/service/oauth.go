package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/civiport-dev/civiport/internal/config"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/logger"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type OAuthService interface {
	Enabled() bool
	AuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (string, domain.User, error)
}

type OAuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
	LinkGoogle(id domain.UserId, googleId, avatarURL string) error
}

// googleProfile is the subset of the userinfo response we consume.
type googleProfile struct {
	Id      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type OAuth struct {
	storage     OAuthStorage
	tokens      Tokens
	oauthConfig *oauth2.Config // nil when the provider is not configured
	userInfoURL string
}

func NewOAuth(storage OAuthStorage, tokens Tokens, cfg *config.Config) *OAuth {
	o := &OAuth{storage: storage, tokens: tokens, userInfoURL: googleUserInfoURL}
	if cfg.OAuthEnabled() {
		o.oauthConfig = &oauth2.Config{
			ClientID:     cfg.Private.GoogleClientId,
			ClientSecret: cfg.Private.GoogleClientSecret,
			RedirectURL:  cfg.Private.GoogleCallbackURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return o
}

func (o *OAuth) Enabled() bool {
	return o.oauthConfig != nil
}

func (o *OAuth) AuthURL(state string) string {
	return o.oauthConfig.AuthCodeURL(state)
}

// HandleCallback exchanges the provider code for a profile, reconciles it
// with the local account store and mints a session token.
func (o *OAuth) HandleCallback(ctx context.Context, code string) (string, domain.User, error) {
	profile, err := o.fetchProfile(ctx, code)
	if err != nil {
		return "", domain.User{}, err
	}

	user, err := o.reconcile(profile)
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := o.tokens.NewToken(&user)
	if err != nil {
		logger.Log.Error("failed to create token after oauth callback", "user_id", user.Id, "error", err)
		return "", domain.User{}, err
	}

	return token, user, nil
}

func (o *OAuth) fetchProfile(ctx context.Context, code string) (googleProfile, error) {
	oauthToken, err := o.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return googleProfile{}, fmt.Errorf("oauth code exchange failed: %w", err)
	}

	resp, err := o.oauthConfig.Client(ctx, oauthToken).Get(o.userInfoURL)
	if err != nil {
		return googleProfile{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return googleProfile{}, fmt.Errorf("userinfo request returned %d: %s", resp.StatusCode, body)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return googleProfile{}, fmt.Errorf("userinfo response carried no email")
	}
	return profile, nil
}

// reconcile links the provider identity to a local account:
// create when the email is unknown, attach the provider id when the account
// has none yet, no-op when already linked. A create that loses the race to a
// concurrent callback re-fetches and links instead of failing.
func (o *OAuth) reconcile(profile googleProfile) (domain.User, error) {
	email := strings.ToLower(profile.Email)

	user, err := o.storage.UserByEmail(email)
	if err == nil {
		return o.linkIfNeeded(user, profile)
	}
	if !errors.IsNotFound(err) {
		return domain.User{}, err
	}

	newUser := domain.User{
		Email:     email,
		Name:      profile.Name,
		Role:      domain.RoleCitizen,
		GoogleId:  profile.Id,
		AvatarURL: profile.Picture,
	}
	id, err := o.storage.SaveUser(newUser)
	if err != nil {
		if errors.IsConflict(err) {
			// Lost a concurrent-creation race: the row exists now, link it.
			user, err := o.storage.UserByEmail(email)
			if err != nil {
				return domain.User{}, err
			}
			return o.linkIfNeeded(user, profile)
		}
		return domain.User{}, err
	}
	newUser.Id = id
	return newUser, nil
}

func (o *OAuth) linkIfNeeded(user domain.User, profile googleProfile) (domain.User, error) {
	if user.GoogleId != "" {
		return user, nil
	}
	// Linking by email alone lets a Google identity claim any local account
	// sharing the address. Logged so the linkage is auditable.
	logger.Log.Warn("oauth identity linked to existing account", "user_id", user.Id)
	if err := o.storage.LinkGoogle(user.Id, profile.Id, profile.Picture); err != nil {
		return domain.User{}, err
	}
	user.GoogleId = profile.Id
	user.AvatarURL = profile.Picture
	return user, nil
}
