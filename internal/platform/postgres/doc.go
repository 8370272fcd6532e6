// Package postgres provides the structured backend of the item store: one
// gallery_items table queried through database/sql with the pgx driver.
// Its schema ships as goose migrations embedded in the package.
package postgres
