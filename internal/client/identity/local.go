package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/cryptox"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
	"github.com/google/uuid"
)

const (
	minPasswordLen   = 6
	defaultMaxFailed = 5
	defaultTokenTTL  = time.Hour
)

// Mail kinds recorded in the outbox.
const (
	MailVerification  = "verification"
	MailPasswordReset = "password-reset"
)

// Mail is a message the local gateway pretended to send.
type Mail struct {
	To   string
	Kind string
}

type account struct {
	uid         string
	email       string
	displayName string
	salt        []byte
	verifier    []byte
	verified    bool
	disabled    bool
	failed      int
}

// LocalGateway is an in-process identity provider. Accounts live in memory
// for the lifetime of the process.
type LocalGateway struct {
	mu        sync.Mutex
	accounts  map[string]*account
	current   *models.Identity
	subs      map[int]*subscriber
	nextSub   int
	outbox    []Mail
	tokens    *TokenIssuer
	maxFailed int
	log       logging.Logger
}

var _ Gateway = (*LocalGateway)(nil)

// NewLocalGateway returns an empty gateway signing tokens with secret.
func NewLocalGateway(secret []byte, log logging.Logger) *LocalGateway {
	if log == nil {
		log = logging.Nop()
	}
	return &LocalGateway{
		accounts:  make(map[string]*account),
		subs:      make(map[int]*subscriber),
		tokens:    NewTokenIssuer(secret, defaultTokenTTL),
		maxFailed: defaultMaxFailed,
		log:       log.With("module", "identity"),
	}
}

// Tokens exposes the issuer so callers can validate id tokens.
func (g *LocalGateway) Tokens() *TokenIssuer {
	return g.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return newAuthError(CodeInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return newAuthError(CodeInvalidEmail)
	}
	return nil
}

func (g *LocalGateway) SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email := normalizeEmail(creds.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(creds.Password) < minPasswordLen {
		return nil, newAuthError(CodeWeakPassword)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.accounts[email]; ok {
		return nil, newAuthError(CodeEmailAlreadyInUse)
	}

	salt, verifier := cryptox.HashPassword(creds.Password)
	acc := &account{
		uid:         uuid.NewString(),
		email:       email,
		displayName: strings.TrimSpace(creds.DisplayName),
		salt:        salt,
		verifier:    verifier,
	}
	g.accounts[email] = acc

	id, err := g.signInLocked(acc)
	if err != nil {
		return nil, err
	}
	g.sendLocked(Mail{To: email, Kind: MailVerification})
	g.log.Info(ctx, "account created", "uid", acc.uid)
	return id, nil
}

func (g *LocalGateway) SignIn(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email := normalizeEmail(creds.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.accounts[email]
	if !ok {
		return nil, newAuthError(CodeUserNotFound)
	}
	if acc.disabled {
		return nil, newAuthError(CodeUserDisabled)
	}
	if acc.failed >= g.maxFailed {
		return nil, newAuthError(CodeTooManyRequests)
	}
	if !cryptox.VerifyPassword(creds.Password, acc.salt, acc.verifier) {
		acc.failed++
		return nil, newAuthError(CodeWrongPassword)
	}
	acc.failed = 0

	return g.signInLocked(acc)
}

func (g *LocalGateway) signInLocked(acc *account) (*models.Identity, error) {
	id := &models.Identity{
		UID:           acc.uid,
		Email:         acc.email,
		DisplayName:   acc.displayName,
		EmailVerified: acc.verified,
	}
	token, err := g.tokens.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	id.Token = token

	g.current = id
	g.publishLocked(id)
	return id.Clone(), nil
}

func (g *LocalGateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return nil
	}
	g.current = nil
	g.publishLocked(nil)
	return nil
}

func (g *LocalGateway) SendPasswordReset(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.accounts[email]; !ok {
		return newAuthError(CodeUserNotFound)
	}
	g.sendLocked(Mail{To: email, Kind: MailPasswordReset})
	return nil
}

// Reload refreshes the cached verification flag of the current user from the
// account record. Listeners are not notified.
func (g *LocalGateway) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return ErrNoCurrentUser
	}
	acc, ok := g.accounts[g.current.Email]
	if !ok || acc.disabled {
		return newAuthError(CodeUserDisabled)
	}
	if g.current.EmailVerified == acc.verified {
		return nil
	}

	refreshed := g.current.Clone()
	refreshed.EmailVerified = acc.verified
	token, err := g.tokens.Issue(refreshed)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	refreshed.Token = token
	g.current = refreshed
	return nil
}

func (g *LocalGateway) IsEmailVerified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil && g.current.EmailVerified
}

func (g *LocalGateway) SendVerificationEmail(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return ErrNoCurrentUser
	}
	g.sendLocked(Mail{To: g.current.Email, Kind: MailVerification})
	return nil
}

func (g *LocalGateway) CurrentUser() *models.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Clone()
}

// ConfirmEmail marks the account verified, as if the emailed link was
// opened. The signed-in client only sees it after Reload.
func (g *LocalGateway) ConfirmEmail(email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.accounts[normalizeEmail(email)]
	if !ok {
		return newAuthError(CodeUserNotFound)
	}
	acc.verified = true
	return nil
}

// Disable blocks further sign-ins for email.
func (g *LocalGateway) Disable(email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.accounts[normalizeEmail(email)]
	if !ok {
		return newAuthError(CodeUserNotFound)
	}
	acc.disabled = true
	return nil
}

// Outbox returns a copy of every mail sent so far.
func (g *LocalGateway) Outbox() []Mail {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Mail(nil), g.outbox...)
}

func (g *LocalGateway) sendLocked(m Mail) {
	g.outbox = append(g.outbox, m)
	g.log.Debug(context.Background(), "mail sent", "to", m.To, "kind", m.Kind)
}

// Subscribe registers l. The current user (possibly nil) is delivered first.
func (g *LocalGateway) Subscribe(l Listener) func() {
	s := newSubscriber(l)

	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = s
	s.push(g.current.Clone())
	g.mu.Unlock()

	go s.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
			s.stop()
		})
	}
}

// Close stops every subscriber.
func (g *LocalGateway) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = make(map[int]*subscriber)
	g.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (g *LocalGateway) publishLocked(id *models.Identity) {
	for _, s := range g.subs {
		s.push(id.Clone())
	}
}

// subscriber delivers events to one listener in push order.
type subscriber struct {
	listener Listener

	mu    sync.Mutex
	queue []*models.Identity

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscriber(l Listener) *subscriber {
	return &subscriber{
		listener: l,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *subscriber) push(id *models.Identity) {
	s.mu.Lock()
	s.queue = append(s.queue, id)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			id := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.listener(id)
		}
	}
}
