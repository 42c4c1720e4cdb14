// Package services holds the read side of the marketplace and thin write
// facades over the aggregates. Writes that touch more than one row go through
// internal/data/aggregates; everything here that reads runs without a
// transaction.
package services
