package claims

import (
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Decoder turns an access token into Claims.
type Decoder interface {
	Decode(token string) (Claims, error)
}

// DecoderFunc is an adapter to use ordinary functions as Decoder.
type DecoderFunc func(token string) (Claims, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(token string) (Claims, error) {
	return f(token)
}

// tokenClaims is the JWT payload shape issued by the backend.
type tokenClaims struct {
	gojwt.RegisteredClaims
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// JWTDecoder reads the payload of a JWT without checking its signature.
type JWTDecoder struct {
	parser *gojwt.Parser
}

// NewJWTDecoder creates a JWTDecoder.
func NewJWTDecoder() *JWTDecoder {
	return &JWTDecoder{parser: gojwt.NewParser()}
}

// Decode implements Decoder.
func (d *JWTDecoder) Decode(token string) (Claims, error) {
	tc := &tokenClaims{}
	if _, _, err := d.parser.ParseUnverified(token, tc); err != nil {
		return Claims{}, fmt.Errorf("claims: decode token: %w", err)
	}
	return Claims{
		Subject:     tc.Subject,
		Permissions: tc.Permissions,
		Roles:       tc.Roles,
	}, nil
}

var _ Decoder = (*JWTDecoder)(nil)
