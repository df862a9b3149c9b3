package moex

import (
	"context"
	"fmt"
)

// Collection is one curated list of securities within a security group.
type Collection struct {
	entry
	session *Session
	group   *SecurityGroup

	securities []*Security
}

func newCollection(s *Session, group *SecurityGroup, id string) *Collection {
	return &Collection{
		entry:   entry{id: id},
		session: s,
		group:   group,
	}
}

// SecurityGroup returns the group this collection belongs to.
func (c *Collection) SecurityGroup() *SecurityGroup {
	return c.group
}

// Load fetches the collection description on first use.
func (c *Collection) Load(ctx context.Context) error {
	if c.loadedProps() {
		return nil
	}

	doc, err := c.session.client.Collection(ctx, c.group.ID(), c.id)
	if err != nil {
		return err
	}

	block := doc["collections"]
	if len(block) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("collection %q not found", c.id)}
	}

	c.setProperties(block[0])
	return nil
}

// Resolve returns a loaded property by name, loading first if needed.
func (c *Collection) Resolve(ctx context.Context, property string) (any, error) {
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	if v, ok := c.Property(property); ok {
		return v, nil
	}
	return nil, &UnknownPropertyError{Entity: "collection " + c.id, Property: property}
}

// Title returns the collection's localized title.
func (c *Collection) Title(ctx context.Context) (string, error) {
	if err := c.Load(ctx); err != nil {
		return "", err
	}
	return c.PropertyString("title"), nil
}

// Securities fetches the full member list, paginating through every page.
// Members come back as unloaded code-only securities.
func (c *Collection) Securities(ctx context.Context) ([]*Security, error) {
	if len(c.securities) > 0 {
		return c.securities, nil
	}

	recs, err := c.session.client.CollectionSecurities(ctx, c.group.ID(), c.id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &EmptyResultError{What: fmt.Sprintf("securities of collection %q", c.id)}
	}

	securities := make([]*Security, 0, len(recs))
	for _, rec := range recs {
		code := rec.Lowered().String("secid")
		if code == "" {
			continue
		}
		securities = append(securities, c.session.securityByCode(code))
	}

	c.securities = securities
	return securities, nil
}
