// Package auth authenticates catalog import requests.
//
// A request is accepted when it carries either the configured bearer token or
// a valid session cookie together with a matching anti-forgery token: the
// X-CSRF-Token header must equal the csrf_token cookie. The authenticated
// Principal and the raw Credentials travel in the request context so bulk
// imports can re-dispatch each item with the caller's identity.
package auth
