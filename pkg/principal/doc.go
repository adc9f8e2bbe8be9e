// Package principal consumes the authenticated identity produced by the
// auth layer and turns it into request-scoped authorization decisions:
// role checks, organization membership, and the scoped-vs-unscoped
// database access choice.
//
// The package deliberately does not verify credentials. An Authenticator
// implementation (session store, token verifier) hands over a Principal,
// and everything downstream trusts it.
package principal
