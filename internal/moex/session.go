package moex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avolkov/moex-iss-data/internal/iss"
	"github.com/avolkov/moex-iss-data/internal/registry"
	"github.com/avolkov/moex-iss-data/internal/series"
)

// Session owns the transport client and one registry per entity kind. Every
// entity handed out by a session is shared: looking the same identity up
// twice yields the same instance.
type Session struct {
	client *iss.Client
	logger *slog.Logger
	loc    *time.Location

	exchange    *Exchange
	engines     *registry.Registry[*Engine]
	markets     *registry.Registry[*Market]
	boards      *registry.Registry[*Board]
	groups      *registry.Registry[*SecurityGroup]
	collections *registry.Registry[*Collection]
	issuers     *registry.Registry[*Issuer]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session backed by the given transport client.
func NewSession(client *iss.Client, opts ...SessionOption) *Session {
	s := &Session{
		client:      client,
		logger:      slog.Default(),
		loc:         moscowLocation(),
		engines:     registry.New[*Engine](),
		markets:     registry.New[*Market](),
		boards:      registry.New[*Board](),
		groups:      registry.New[*SecurityGroup](),
		collections: registry.New[*Collection](),
		issuers:     registry.New[*Issuer](),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.exchange = newExchange(s)
	return s
}

// Exchange returns the root of the hierarchy.
func (s *Session) Exchange() *Exchange {
	return s.exchange
}

// Engine returns the shared engine instance for an id.
func (s *Session) Engine(id string) (*Engine, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Message: "invalid engine id"}
	}
	return s.engines.GetOrCreate(registry.Key(id), func() (*Engine, error) {
		return newEngine(s, id), nil
	})
}

// Market returns the shared market instance for (engine id, market id).
func (s *Session) Market(engineID, marketID string) (*Market, error) {
	if marketID == "" {
		return nil, &InvalidArgumentError{Message: "invalid market id"}
	}
	engine, err := s.Engine(engineID)
	if err != nil {
		return nil, err
	}
	return s.markets.GetOrCreate(registry.Key(engineID, marketID), func() (*Market, error) {
		return newMarket(s, engine, marketID), nil
	})
}

// Board returns the shared board instance for (engine id, market id, board id).
func (s *Session) Board(engineID, marketID, boardID string) (*Board, error) {
	if boardID == "" {
		return nil, &InvalidArgumentError{Message: "invalid board id"}
	}
	market, err := s.Market(engineID, marketID)
	if err != nil {
		return nil, err
	}
	return s.boards.GetOrCreate(registry.Key(engineID, marketID, boardID), func() (*Board, error) {
		return newBoard(s, market, boardID), nil
	})
}

// SecurityGroup returns the shared security group instance for an id.
func (s *Session) SecurityGroup(id string) (*SecurityGroup, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Message: "invalid security group id"}
	}
	return s.groups.GetOrCreate(registry.Key(id), func() (*SecurityGroup, error) {
		return newSecurityGroup(s, id), nil
	})
}

// Collection returns the shared collection instance for (group id, collection id).
func (s *Session) Collection(groupID, collectionID string) (*Collection, error) {
	if collectionID == "" {
		return nil, &InvalidArgumentError{Message: "invalid collection id"}
	}
	group, err := s.SecurityGroup(groupID)
	if err != nil {
		return nil, err
	}
	return s.collections.GetOrCreate(registry.Key(groupID, collectionID), func() (*Collection, error) {
		return newCollection(s, group, collectionID), nil
	})
}

// Issuer returns the shared issuer instance for an id.
func (s *Session) Issuer(id string) (*Issuer, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Message: "invalid issuer id"}
	}
	return s.issuers.GetOrCreate(registry.Key(id), func() (*Issuer, error) {
		return &Issuer{entry: entry{id: id}}, nil
	})
}

// Security resolves a security by name. A "#CODE" form uses the code
// directly; anything else runs a best-match search first, which also seeds
// the issuer from the top search row.
func (s *Session) Security(ctx context.Context, name string) (*Security, error) {
	if name == "" {
		return nil, &InvalidArgumentError{Message: "security name can not be empty"}
	}

	if code, ok := strings.CutPrefix(name, "#"); ok {
		if code == "" {
			return nil, &InvalidArgumentError{Message: "security name can not be empty"}
		}
		return s.securityByCode(code), nil
	}

	matches, err := s.exchange.FindSecurities(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &EmptyResultError{What: fmt.Sprintf("security %q not found", name)}
	}

	sec := s.securityByCode(matches[0].String("secid"))
	sec.seedIssuer(matches[0])
	return sec, nil
}

// securityByCode wraps a code as an unloaded security. Securities are not
// registry-cached; each lookup is a fresh handle over shared boards.
func (s *Session) securityByCode(code string) *Security {
	return &Security{
		entry:   entry{id: code},
		session: s,
		history: series.New[series.Candle](s.loc),
	}
}

// SetLanguage switches the localized text language for every subsequent
// fetch. Only "ru" and "en" are accepted.
func (s *Session) SetLanguage(lang string) error {
	if err := s.client.SetLanguage(lang); err != nil {
		if errors.Is(err, iss.ErrUnsupportedLanguage) {
			return &InvalidArgumentError{Message: err.Error()}
		}
		return err
	}
	return nil
}

// Language returns the current language setting.
func (s *Session) Language() string {
	return s.client.Language()
}

// Authenticate logs in against MoEx Passport, enabling the endpoints that
// require a subscription.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	return s.client.Authenticate(ctx, username, password)
}

// Requests reports the total number of API requests made by this session.
func (s *Session) Requests() int64 {
	return s.client.Requests()
}

// Reset drops every cached entity and series. Intended for test isolation.
func (s *Session) Reset() {
	s.engines.Clear()
	s.markets.Clear()
	s.boards.Clear()
	s.groups.Clear()
	s.collections.Clear()
	s.issuers.Clear()
	s.exchange = newExchange(s)
}
