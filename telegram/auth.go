package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

// ErrNotAuthorized is returned when the daemon starts without a session.
var ErrNotAuthorized = errors.New(`please, execute "auth" command before starting the daemon`)

var errSignUpUnsupported = errors.New("sign up is not supported, register the account in an official app first")

// Prompt reads answers from a terminal.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the descriptor used for hidden password input, -1 when the
	// input is not a terminal.
	fd int
}

// NewPrompt returns a Prompt over in and out. Hidden input is used when in
// is a terminal.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Prompt{in: bufio.NewReader(in), out: out, fd: fd}
}

// Ask prints question and returns the trimmed answer line.
func (p *Prompt) Ask(question string) (string, error) {
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question; only "y" counts as yes.
func (p *Prompt) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question + " [y/n]: ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

// Secret reads a line without echo when possible.
func (p *Prompt) Secret(question string) (string, error) {
	if p.fd < 0 {
		return p.Ask(question)
	}
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// userAuthenticator implements auth.UserAuthenticator over a Prompt.
type userAuthenticator struct {
	prompt *Prompt
}

var _ auth.UserAuthenticator = userAuthenticator{}

func (a userAuthenticator) Phone(_ context.Context) (string, error) {
	return a.prompt.Ask("Enter phone number: ")
}

func (a userAuthenticator) Password(_ context.Context) (string, error) {
	return a.prompt.Secret("Enter password: ")
}

func (a userAuthenticator) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt.Ask("Enter code: ")
}

func (a userAuthenticator) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return errSignUpUnsupported
}

func (a userAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errSignUpUnsupported
}
