// Package core provides the business logic of the card catalog.
//
// It holds all domain rules independent of any transport layer, so the HTTP
// API, the cardctl CLI and tests share the same code paths.
//
// # Architecture
//
//   - Identifier: [ParseIdentifier] splits "SERIES-SET-NUMBER-RARITY".
//   - Payloads: [NewCard] is a validated creation request. Its [Specifics]
//     is a closed sum type: [CharacterSpecifics], [LiveSpecifics], or nil for
//     Energy cards.
//   - Caches: [Caches] mirrors the reference tables in memory. Key/value
//     tables use [Mapping] (write-through, storage first), whole-table lists
//     use [ListCache] (reloaded after each change).
//   - Reads: [Reader] assembles a [FullCard] from concurrent per-table reads
//     and never returns a partial result.
//   - Writes: [UnitOfWork] owns one transaction. [Service.CreateCard] runs one
//     card through it; [Service.CreateCards] runs a whole batch through a
//     single one.
//
// # Card Creation
//
// For each card, inside the transaction:
//
//  1. Resolve the rarity type (unmapped codes are Regular)
//  2. Canonicalize the name and get-or-create it
//  3. Check the set exists, insert the base card
//  4. Insert the Character or Live row, one printing, and the hearts
//  5. Link groups (after variant canonicalization) and units; a missing
//     group or unit fails the whole transaction
//  6. Get-or-create and link skills
//
// # Errors
//
// Failures are [*ValidationError], [*NotFoundError], [*ConflictError] or
// [*StorageError]. [MapError] turns any of them into a [UserMessage] with a
// support code.
package core
