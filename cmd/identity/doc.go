// Package identity owns tunebox user records and credentials.
//
// It contains the password codec, the JSON-file user store with its single
// mutation lock, and the resolver that turns local credentials or a
// federated identity into a stored user.
//
// The package has no HTTP or session knowledge; callers map its typed
// errors (see errors.go) onto their own transport.
package identity
