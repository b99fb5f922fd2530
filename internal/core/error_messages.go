package core

// # Error Codes Reference
//
// Every error surfaced to a user carries a code support staff can look up.
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Missing columns: a required column is absent from the header
//	SCH002 - Reserved column: the header contains the reserved Code column
//	SCH003 - Duplicate columns: a column name appears more than once
//
// # Value Errors (VAL001-VAL099)
//
//	VAL001 - Name separator: a name contains ',' or ';'
//	VAL002 - Empty name: a row has no name
//	VAL003 - Duplicate name: two rows share a name
//	VAL004 - Missing kind: a row has no kind
//	VAL005 - Illegal kind: a kind is not P, N or H
//
// # Reference Errors (REF001)
//
//	REF001 - Unknown reference: a relation names a unit that does not exist
//
// # Invariant Errors (INV001-INV099)
//
//	INV001 - Repeated reference in one record
//	INV002 - Superposition or containment cycle
//	INV003 - Asymmetric equivalence
//	INV004 - Equivalent units with different parents
//	INV005 - Equivalent units with different children
//	INV006 - Unit listed by two facts
//	INV007 - Structural unit with members
//	INV008 - Fact with relations or equivalences
//	INV009 - Fact named as a child or equivalent
//
// # Command Errors (CMD001-CMD099)
//
//	CMD001 - Unit not found
//	CMD002 - Invalid name
//	CMD003 - Name already in use
//	CMD004 - Self reference
//	CMD005 - Invalid kind
//	CMD006 - Operation not allowed for this kind
//	CMD007 - Would create a cycle
//	CMD008 - Relation already exists
//	CMD009 - Relation does not exist
//	CMD010 - Parent sets differ
//	CMD011 - Child sets differ
//	CMD012 - Unit already belongs to a fact
//	CMD013 - Invalid color
//	CMD014 - Invalid filter
//	CMD015 - Nothing to undo
//	CMD016 - Nothing to redo
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many imports in progress
//	IMP002 - Request cancelled
//	IMP003 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application log for the original
// error when a user reports ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/harris/internal/matrix"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// ErrNoFile is returned when an import request carries no body.
var ErrNoFile = errors.New("no file provided")

var ruleMessages = map[matrix.Rule]UserMessage{
	matrix.RuleMissingColumns:    {"Required columns are missing", "Add the columns Name, Children, Equivalences, Fact, Kind, Phase and Description", "SCH001"},
	matrix.RuleReservedColumn:    {"The file uses the reserved column Code", "Remove or rename the Code column", "SCH002"},
	matrix.RuleDuplicateColumns:  {"A column appears more than once", "Keep a single copy of each column", "SCH003"},
	matrix.RuleNameSeparator:     {"A unit name contains ',' or ';'", "Rename the unit without separators", "VAL001"},
	matrix.RuleEmptyName:         {"A row has no name", "Fill in or delete the row", "VAL002"},
	matrix.RuleDuplicateName:     {"Two rows have the same name", "Give every unit a unique name", "VAL003"},
	matrix.RuleMissingKind:       {"A unit has no kind", "Set the kind to P, N or H", "VAL004"},
	matrix.RuleIllegalKind:       {"A unit has an unknown kind", "Use P, N or H", "VAL005"},
	matrix.RuleUnknownReference:  {"A relation names a unit that does not exist", "Add the unit or fix the reference", "REF001"},
	matrix.RuleRepeatedInRecord:  {"A unit is listed twice in the same record", "List each unit once per row", "INV001"},
	matrix.RuleCycle:             {"The relations form a cycle", "Remove one relation from each listed cycle", "INV002"},
	matrix.RuleAsymmetricEquiv:   {"An equivalence is only listed on one side", "List the equivalence on both units", "INV003"},
	matrix.RuleEquivParents:      {"Equivalent units have different parents", "Give equivalent units the same parents", "INV004"},
	matrix.RuleEquivChildren:     {"Equivalent units have different children", "Give equivalent units the same children", "INV005"},
	matrix.RuleMemberExclusivity: {"A unit belongs to more than one fact", "Keep each unit in a single fact", "INV006"},
	matrix.RuleStructuralMembers: {"A positive or negative unit has members", "Only facts (H) may list members", "INV007"},
	matrix.RuleFactRelations:     {"A fact has children or equivalences", "Move the relations to the fact's members", "INV008"},
	matrix.RuleFactInRelations:   {"A fact is used as a child or equivalent", "Relate the fact's members instead", "INV009"},
}

// errorMatch pairs a sentinel with its user message. Matched in order with
// errors.Is.
type errorMatch struct {
	target error
	msg    UserMessage
}

var errorMatches = []errorMatch{
	{matrix.ErrNotFound, UserMessage{"Unit not found", "Check the unit name", "CMD001"}},
	{matrix.ErrInvalidName, UserMessage{"The name is not valid", "Use a non-empty name without ',' or ';'", "CMD002"}},
	{matrix.ErrDuplicateName, UserMessage{"The name is already in use", "Choose another name", "CMD003"}},
	{matrix.ErrSelfReference, UserMessage{"A unit cannot be related to itself", "Pick two different units", "CMD004"}},
	{matrix.ErrInvalidKind, UserMessage{"The kind is not valid", "Use P, N or H", "CMD005"}},
	{matrix.ErrKindMismatch, UserMessage{"This operation is not allowed for this kind of unit", "Relations link P and N units; members belong to facts", "CMD006"}},
	{matrix.ErrCycle, UserMessage{"The change would create a cycle", "Check the existing sequence between the two units", "CMD007"}},
	{matrix.ErrDuplicate, UserMessage{"The units are already related", "No change is needed", "CMD008"}},
	{matrix.ErrNoRelation, UserMessage{"The units are not related", "Refresh and try again", "CMD009"}},
	{matrix.ErrParentMismatch, UserMessage{"Equivalent units must have the same parents", "Align the parents first", "CMD010"}},
	{matrix.ErrChildMismatch, UserMessage{"Equivalent units must have the same children", "Align the children first", "CMD011"}},
	{matrix.ErrAlreadyMember, UserMessage{"The unit already belongs to a fact", "Remove it from its current fact first", "CMD012"}},
	{matrix.ErrInvalidColor, UserMessage{"The color is not valid", "Use the form #RRGGBB", "CMD013"}},
	{matrix.ErrInvalidFilter, UserMessage{"The filter is not valid", "Filter on Code or one of the dataset columns", "CMD014"}},
	{ErrNothingToUndo, UserMessage{"There is nothing to undo", "No change is needed", "CMD015"}},
	{ErrNothingToRedo, UserMessage{"There is nothing to redo", "No change is needed", "CMD016"}},

	{ErrFileTooLarge, UserMessage{"File exceeds the maximum import size", "Split the dataset or raise IMPORT_MAX_FILE_SIZE", "FILE001"}},
	{ErrInvalidCSV, UserMessage{"File is not a valid CSV", "Save the file as semicolon separated CSV", "FILE002"}},
	{ErrNoFile, UserMessage{"No file was provided", "Select a CSV file to import", "FILE004"}},
	{ErrEmptyFile, UserMessage{"The file is empty", "Import a file with a header row", "FILE005"}},

	{ErrTooManyImports, UserMessage{"Other imports are in progress", "Wait a moment and try again", "IMP001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP003"}},
}

// errorPatterns catch errors that cross a process boundary as text.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"invalid request body", UserMessage{"The request could not be read", "Send a JSON body with the documented fields", "REQ001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Import
// validation errors map by rule, command errors by sentinel. A nil error maps
// to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *matrix.ValidationError
	if errors.As(err, &verr) {
		if msg, ok := ruleMessages[verr.Rule]; ok {
			return msg
		}
	}
	for _, m := range errorMatches {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError keeps the technical error for logging next to its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; it returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
