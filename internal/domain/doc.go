// Package domain holds the core types shared across services, repositories,
// and handlers. It has no dependencies on other internal packages.
package domain
