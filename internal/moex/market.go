package moex

import (
	"context"
	"fmt"

	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// Market is one market of an engine ("shares", "bonds", "selt", ...). Its
// behavior table drives the market-specific part of security property
// resolution.
type Market struct {
	entry
	session *Session
	engine  *Engine
	kind    *marketKind

	boards []tabular.Record
}

func newMarket(s *Session, engine *Engine, id string) *Market {
	return &Market{
		entry:   entry{id: id},
		session: s,
		engine:  engine,
		kind:    kindFor(engine.ID(), id),
	}
}

// Engine returns the engine this market belongs to.
func (m *Market) Engine() *Engine {
	return m.engine
}

// Load fetches the market description on first use. The description's board
// rows are kept raw; Boards exposes them.
func (m *Market) Load(ctx context.Context) error {
	if len(m.boards) > 0 {
		return nil
	}

	doc, err := m.session.client.Market(ctx, m.engine.ID(), m.id)
	if err != nil {
		return err
	}

	block := doc["boards"]
	if len(block) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("market %q not found", m.id)}
	}

	m.boards = block
	return nil
}

// Boards returns the market's board rows as returned by the API.
func (m *Market) Boards(ctx context.Context) ([]tabular.Record, error) {
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m.boards, nil
}

// Title returns the market's localized title. Market descriptions do not
// carry it; the engine's market listing does, so an unseeded title triggers
// that fetch.
func (m *Market) Title(ctx context.Context) (string, error) {
	if _, ok := m.Property("title"); !ok {
		if _, err := m.engine.Markets(ctx); err != nil {
			return "", err
		}
	}

	if _, ok := m.Property("title"); !ok {
		return "", &EmptyResultError{What: fmt.Sprintf("title of market %q", m.id)}
	}
	return m.PropertyString("title"), nil
}

// mappedProperty returns the loaded-property field a virtual property maps
// to on this market, if any.
func (m *Market) mappedProperty(property string) (string, bool) {
	field, ok := m.kind.remap[property]
	return field, ok
}
