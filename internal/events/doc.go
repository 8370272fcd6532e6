// Package events carries gallery lifecycle notifications from the service
// layer to loosely coupled handlers.
//
// The gallery service emits an ItemEvent after each successful change to an
// existing item. Handlers react without the service knowing about them; the
// blob package, for example, removes the stored image once an item is purged.
package events
