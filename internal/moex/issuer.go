package moex

// Issuer is the company behind a security. Its properties come from security
// search rows; there is no dedicated issuer endpoint.
type Issuer struct {
	entry
}

// Title returns the issuer's name.
func (i *Issuer) Title() string {
	return i.PropertyString("title")
}

// INN returns the issuer's taxpayer number.
func (i *Issuer) INN() string {
	return i.PropertyString("inn")
}

// OKPO returns the issuer's national enterprise code.
func (i *Issuer) OKPO() string {
	return i.PropertyString("okpo")
}
