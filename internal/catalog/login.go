package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mmcdole/reel/internal/domain"
)

// Authenticator exchanges credentials with the catalog server
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Signup(ctx context.Context, username, password string) error
}

// LoginFlow prompts for username/password on the terminal and obtains a token
type LoginFlow struct {
	auth   Authenticator
	logger *slog.Logger

	in           io.Reader
	out          io.Writer
	readPassword func() (string, error)
}

// NewLoginFlow creates a login flow reading from stdin
func NewLoginFlow(auth Authenticator, logger *slog.Logger) *LoginFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginFlow{
		auth:   auth,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			return string(b), err
		},
	}
}

// Run prompts for credentials and logs in. With signup set, the account is
// registered first.
func (f *LoginFlow) Run(ctx context.Context, signup bool) (domain.Credential, error) {
	title := "Sign in"
	if signup {
		title = "Create account"
	}
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, title)
	fmt.Fprintln(f.out, strings.Repeat("━", 24))

	reader := bufio.NewReader(f.in)
	fmt.Fprint(f.out, "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && username != "") {
		return domain.Credential{}, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Fprint(f.out, "Password: ")
	password, err := f.readPassword()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(f.out)

	if username == "" || password == "" {
		return domain.Credential{}, &domain.ValidationError{Message: "username and password are required"}
	}

	if signup {
		fmt.Fprintln(f.out, "Creating account...")
		if err := f.auth.Signup(ctx, username, password); err != nil {
			if !IsStatus(err, http.StatusBadRequest) {
				f.logger.Error("signup failed", "username", username, "error", err)
				return domain.Credential{}, err
			}
			// the account already exists; signing in still works with the right password
			f.logger.Info("signup rejected, trying login", "username", username, "detail", domain.RemoteDetail(err))
			fmt.Fprintf(f.out, "%s, signing in instead.\n", domain.RemoteDetail(err))
		}
	}

	fmt.Fprintln(f.out, "Authenticating...")
	token, err := f.auth.Login(ctx, username, password)
	if err != nil {
		f.logger.Error("login failed", "username", username, "error", err)
		return domain.Credential{}, err
	}

	fmt.Fprintln(f.out, "Authentication successful!")
	return domain.Credential{Token: token, Username: username}, nil
}
