// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the gallery service to a bearer
// authenticated JSON API mounted under /api.
package api
