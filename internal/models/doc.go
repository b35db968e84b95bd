// Package models defines the entities persisted by the repositories package.
//
//   - [SearchEntry] : a cached track search, keyed by normalised query and market
//
// Persistent entities implement [Model], which provides the ID, timestamps and validation.
package models
