package wavebase

import (
	"github.com/golang/glog"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// logIdentityTokenClaims parses token as an unverified JWT purely for
// operability logging, mirroring the teacher's ParseByJwtUnverified. The
// claims are never used for authorization; a token that fails to parse
// as a JWT is not an error.
func logIdentityTokenClaims(token string) {
	if !glog.V(2) {
		return
	}
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		glog.V(2).Infof("wavebase: identity token is not a JWT: %v", err)
		return
	}
	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok {
		return
	}
	glog.V(2).Infof("wavebase: identity token claims: %v", claims)
}
