package authstore

// Profile defines a public type used by issueguard APIs.
//
// UserID and Username are the only attributes the coordination core
// interprets; everything else the backend sends (department, email, and so
// on) is carried in Extra and round-trips untouched.
type Profile struct {
	UserID   int64
	Username string
	Extra    map[string]any
}

// Clone returns a deep copy safe to hand to callers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		UserID:   p.UserID,
		Username: p.Username,
	}
	if p.Extra != nil {
		out.Extra = make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
