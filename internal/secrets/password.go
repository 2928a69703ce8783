package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"internscan-engine/internal/config"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "internscan"

	GitHubTokenAccount = "internscan:github"

	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvIMAPPassword = "INTERNSCAN_IMAP_PASSWORD"
)

var ErrNotFound = errors.New("secret not found")

// lookup tries the keychain first, then the environment.
func lookup(account, env string) (string, error) {
	if strings.TrimSpace(account) != "" {
		v, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s (set it in keychain or via %s): %w", account, env, ErrNotFound)
}

func set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func del(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// GetGitHubToken returns the API token. Anonymous access works too, so
// callers usually treat ErrNotFound as "no token".
func GetGitHubToken() (string, error) {
	return lookup(GitHubTokenAccount, EnvGitHubToken)
}

func SetGitHubToken(token string) error { return set(GitHubTokenAccount, token) }

func DeleteGitHubToken() error { return del(GitHubTokenAccount) }

func GetIMAPPassword(keyringAccount string) (string, error) {
	return lookup(keyringAccount, EnvIMAPPassword)
}

func SetIMAPPassword(keyringAccount string, password string) error {
	return set(keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	return del(keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"internscan:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}
