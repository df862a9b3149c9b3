package moex

import (
	"context"
	"fmt"
)

// SecurityGroup is one of the exchange's security groupings
// ("stock_shares", "currency_selt", ...).
type SecurityGroup struct {
	entry
	session *Session

	collections []*Collection
}

func newSecurityGroup(s *Session, id string) *SecurityGroup {
	return &SecurityGroup{
		entry:   entry{id: id},
		session: s,
	}
}

// Load populates the group's properties. Groups have no per-id endpoint;
// the exchange-wide listing seeds them all.
func (g *SecurityGroup) Load(ctx context.Context) error {
	if g.loadedProps() {
		return nil
	}

	if _, err := g.session.exchange.SecurityGroups(ctx); err != nil {
		return err
	}
	if !g.loadedProps() {
		return &EmptyResultError{What: fmt.Sprintf("security group %q not found", g.id)}
	}
	return nil
}

// Resolve returns a loaded property by name, loading first if needed.
func (g *SecurityGroup) Resolve(ctx context.Context, property string) (any, error) {
	if err := g.Load(ctx); err != nil {
		return nil, err
	}
	if v, ok := g.Property(property); ok {
		return v, nil
	}
	return nil, &UnknownPropertyError{Entity: "security group " + g.id, Property: property}
}

// Title returns the group's localized title.
func (g *SecurityGroup) Title(ctx context.Context) (string, error) {
	if err := g.Load(ctx); err != nil {
		return "", err
	}
	return g.PropertyString("title"), nil
}

// Collections lists the group's collections, seeding their titles.
func (g *SecurityGroup) Collections(ctx context.Context) ([]*Collection, error) {
	if len(g.collections) > 0 {
		return g.collections, nil
	}

	doc, err := g.session.client.SecurityGroupCollections(ctx, g.id)
	if err != nil {
		return nil, err
	}

	block := doc["collections"]
	if len(block) == 0 {
		return nil, &EmptyResultError{What: fmt.Sprintf("collections of security group %q", g.id)}
	}

	collections := make([]*Collection, 0, len(block))
	for _, rec := range block {
		rec = rec.Lowered()
		collection, err := g.session.Collection(g.id, rec.String("name"))
		if err != nil {
			return nil, err
		}
		collection.setProperty("title", rec["title"])
		collections = append(collections, collection)
	}

	g.collections = collections
	return collections, nil
}

// Collection returns the collection whose id is the group id joined with the
// given part ("one" on group "stock_shares" names "stock_shares_one").
func (g *SecurityGroup) Collection(partID string) (*Collection, error) {
	if partID == "" {
		return nil, &InvalidArgumentError{Message: "invalid collection id"}
	}
	return g.session.Collection(g.id, fmt.Sprintf("%s_%s", g.id, partID))
}
