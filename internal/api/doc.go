// Package api serves catalogsync over HTTP.
//
// Write endpoints (POST /import, POST /bulk-import) require authentication;
// catalog reads under /titles are public and served through the response
// cache. /healthz and /metrics are unauthenticated operational endpoints.
package api
