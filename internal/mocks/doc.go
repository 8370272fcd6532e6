// Package mocks provides shared mock implementations for testing.
//
// Each mock exposes one function field per interface method. A nil field
// falls back to the default values held by the mock, so tests only set what
// they care about:
//
//	validator := &mocks.MockJWTService{
//	    Claims: &auth.Claims{UserID: "user-1"},
//	}
package mocks
