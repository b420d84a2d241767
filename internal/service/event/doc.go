// Package event implements event lifecycle management.
//
// The service layer contains the business logic for creating, updating, and
// deleting events. It depends on the repository interface defined in this
// package and should never import from handler code.
//
// Repository implementations live in repository/postgres/.
package event
