// Package domain defines core data models, error classes and interfaces
// shared across safetalk. It contains plain types (wire/state) and contracts
// (interfaces) only.
package domain
