// Package ir provides the value model shared by the htmpl store and engine.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, Integer, Real, Text, Blob
//   - Values and QueryResults are immutable once produced by the store
//   - Row column order follows the query's column order
package ir
