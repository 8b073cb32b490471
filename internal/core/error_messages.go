// Package core provides the card catalog engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a client reports an error, the code identifies which rule rejected the
// request without exposing storage internals.
//
// # Validation Errors (VAL001-VAL099)
//
// Keyed on ValidationError.Kind:
//
//	VAL001 - Bad identifier: card_identifier is not series-set-number-rarity
//	VAL002 - Type mismatch: card_type disagrees with the type-specific fields
//	VAL003 - Hearts: Character/Live without hearts, Energy with hearts, negative counts
//	VAL004 - Unknown value: an enum field holds an unknown value
//	VAL005 - Unreadable payload: the body is not a creation payload
//	VAL006 - Batch too large: a bulk request exceeds the configured maximum
//	VAL000 - Any other rejected payload
//
// # Not Found (NF001-NF099)
//
//	NF001 - Card not found
//	NF002 - Group not found
//	NF003 - Unit not found
//	NF004 - Set not found
//	NF000 - Any other missing reference
//
// # Conflicts (CONF001-CONF099)
//
//	CONF001 - Duplicate: the key already exists
//	CONF002 - In use: the row is still referenced by cards
//
// # Database Errors (DB004-DB099)
//
// Matched on the technical error text of a StorageError:
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout ("timeout", "context deadline exceeded")
//	DB007 - Deadlock
//
// # Throttling (RATE001, BUSY001)
//
//	RATE001 - Too many requests from one client
//	BUSY001 - Too many bulk creations in progress
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check the application
// logs for the original technical error when users report ERR000.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// validationMessages maps ValidationError.Kind to a user message.
var validationMessages = map[ValidationKind]UserMessage{
	KindIdentifier: {
		Message: "The card identifier is malformed",
		Action:  "Use the format series-set-number-rarity, e.g. PL!SP-bp1-001-R",
		Code:    "VAL001",
	},
	KindTypeMismatch: {
		Message: "The card type does not match the fields provided",
		Action:  "Send cost and blades for Character, score for Live, neither for Energy",
		Code:    "VAL002",
	},
	KindHearts: {
		Message: "The heart allocation is invalid",
		Action:  "Character and Live cards need at least one heart; Energy cards need none",
		Code:    "VAL003",
	},
	KindUnknownValue: {
		Message: "Value is not in the allowed list",
		Action:  "Check the allowed values for this field",
		Code:    "VAL004",
	},
	KindUnreadable: {
		Message: "The request body could not be read",
		Action:  "Send a JSON creation payload",
		Code:    "VAL005",
	},
	KindBatchSize: {
		Message: "The batch is too large",
		Action:  "Split the batch into smaller requests",
		Code:    "VAL006",
	},
}

var defaultValidation = UserMessage{
	Message: "The request was rejected",
	Action:  "Check the request fields and try again",
	Code:    "VAL000",
}

// notFoundMessages maps NotFoundError.Entity to a user message.
var notFoundMessages = map[string]UserMessage{
	"card":  {Message: "Card not found", Action: "Check the card id", Code: "NF001"},
	"group": {Message: "Group not found", Action: "Create the group before referencing it", Code: "NF002"},
	"unit":  {Message: "Unit not found", Action: "Create the unit before referencing it", Code: "NF003"},
	"set":   {Message: "Set not found", Action: "Create the set before adding cards to it", Code: "NF004"},
}

var defaultNotFound = UserMessage{
	Message: "Referenced record does not exist",
	Action:  "Create the referenced record first",
	Code:    "NF000",
}

var (
	duplicateMessage = UserMessage{
		Message: "A record with this key already exists",
		Action:  "Use a different key or delete the existing record first",
		Code:    "CONF001",
	}
	inUseMessage = UserMessage{
		Message: "The record is still referenced by cards",
		Action:  "Remove the cards that use it first",
		Code:    "CONF002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages for errors that carry no catalog type. The first matching pattern
// wins, so more specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "too many bulk",
		msg: UserMessage{
			Message: "Too many bulk creations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "BUSY001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Catalog error types
// are classified by their fields; anything else is matched against known technical
// patterns, falling back to ERR000.
//
// Example:
//
//	msg := MapError(NotFound("group", "Nonexistent Group"))
//	// msg.Code == "NF002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		if msg, ok := validationMessages[ve.Kind]; ok {
			return msg
		}
		return defaultValidation
	case errors.As(err, &nf):
		if msg, ok := notFoundMessages[nf.Entity]; ok {
			return msg
		}
		return defaultNotFound
	case errors.As(err, &ce):
		if ce.Reason != "" {
			return inUseMessage
		}
		return duplicateMessage
	}

	return matchPatterns(errorPatterns, err.Error(), defaultMessage)
}

func matchPatterns(patterns []errorPattern, text string, fallback UserMessage) UserMessage {
	errStr := strings.ToLower(text)
	for _, ep := range patterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return fallback
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
