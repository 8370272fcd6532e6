// Package store defines the persistence contract for gallery items.
// The interfaces here abstract the underlying storage mechanism from the
// service layer: a structured SQL backend and a document-list backend over a
// key-value store both satisfy ItemStore with identical observable behavior.
// The storetest subpackage holds the conformance suite both are run against.
package store
