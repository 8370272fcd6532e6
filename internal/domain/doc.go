// Package domain contains the core entities of the gallery: the photo record
// a user owns, its soft-delete lifecycle, and identifier derivation. It is
// independent of any specific storage backend or delivery mechanism.
package domain
