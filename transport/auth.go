package transport

// AuthKind identifies which authentication variant is active
type AuthKind int

const (
	// AuthNone sends requests without credentials
	AuthNone AuthKind = iota
	// AuthBasic sends HTTP basic credentials
	AuthBasic
	// AuthOpaque sends a preformatted Authorization header value
	AuthOpaque
)

func (k AuthKind) String() string {
	switch k {
	case AuthBasic:
		return "basic"
	case AuthOpaque:
		return "opaque"
	default:
		return "none"
	}
}

// Auth holds exactly one authentication variant. The zero value is NoAuth.
type Auth struct {
	kind  AuthKind
	user  string
	pass  string
	value string
}

// NoAuth returns the variant that sends no credentials
func NoAuth() Auth {
	return Auth{kind: AuthNone}
}

// BasicAuth returns the basic-credentials variant
func BasicAuth(user, pass string) Auth {
	return Auth{kind: AuthBasic, user: user, pass: pass}
}

// OpaqueAuth returns the variant forwarding value as the Authorization header
func OpaqueAuth(value string) Auth {
	return Auth{kind: AuthOpaque, value: value}
}

// ParseAuth resolves a credentials descriptor into a variant.
// User and pass both present (even empty) yield basic credentials, otherwise a
// non-empty value yields opaque auth, otherwise no auth.
func ParseAuth(user, pass *string, value string) Auth {
	if user != nil && pass != nil {
		return BasicAuth(*user, *pass)
	}
	if value != "" {
		return OpaqueAuth(value)
	}
	return NoAuth()
}

func (a Auth) Kind() AuthKind {
	return a.kind
}

// Basic returns the credentials when the basic variant is active
func (a Auth) Basic() (user, pass string, ok bool) {
	if a.kind != AuthBasic {
		return "", "", false
	}
	return a.user, a.pass, true
}

// Opaque returns the header value when the opaque variant is active
func (a Auth) Opaque() (string, bool) {
	if a.kind != AuthOpaque {
		return "", false
	}
	return a.value, true
}

func (a Auth) String() string {
	switch a.kind {
	case AuthBasic:
		return "basic(" + a.user + ")"
	case AuthOpaque:
		return "opaque"
	default:
		return "none"
	}
}
