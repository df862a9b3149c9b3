package moex

import (
	"context"
	"fmt"
)

// Board is one trading board of a market ("TQBR", "CETS", ...).
type Board struct {
	entry
	session *Session
	market  *Market
}

func newBoard(s *Session, market *Market, id string) *Board {
	return &Board{
		entry:   entry{id: id},
		session: s,
		market:  market,
	}
}

// Engine returns the engine this board belongs to.
func (b *Board) Engine() *Engine {
	return b.market.engine
}

// Market returns the market this board belongs to.
func (b *Board) Market() *Market {
	return b.market
}

// Load fetches the board description on first use.
func (b *Board) Load(ctx context.Context) error {
	if b.loadedProps() {
		return nil
	}

	doc, err := b.session.client.Board(ctx, b.market.engine.ID(), b.market.ID(), b.id)
	if err != nil {
		return err
	}

	block := doc["board"]
	if len(block) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("board %q not found", b.id)}
	}

	b.setProperties(block[0])
	return nil
}

// Resolve returns a loaded property by name, loading the description first
// if needed.
func (b *Board) Resolve(ctx context.Context, property string) (any, error) {
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	if v, ok := b.Property(property); ok {
		return v, nil
	}
	return nil, &UnknownPropertyError{Entity: "board " + b.id, Property: property}
}

// Title returns the board's localized title.
func (b *Board) Title(ctx context.Context) (string, error) {
	if err := b.Load(ctx); err != nil {
		return "", err
	}
	return b.PropertyString("title"), nil
}
