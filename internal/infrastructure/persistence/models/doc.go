// Package models holds the GORM persistence models. They carry every ORM
// tag and table mapping so the domain entities stay free of infrastructure
// concerns; repositories convert between the two at their boundary.
//
// Layout:
//   - orders.go: canonical order and its child records (items, shipping,
//     notes, properties, identifiers)
//   - assembler.go: flattening of a canonical order into its insert-ready
//     record set
//   - sync.go: sync state (checkpoints, failed records, run logs, remote
//     connections)
package models
