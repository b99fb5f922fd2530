package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for interactive commands. Match with errors.Is.
var (
	ErrNotFound       = errors.New("unit not found")
	ErrInvalidName    = errors.New("invalid name")
	ErrDuplicateName  = errors.New("name already in use")
	ErrSelfReference  = errors.New("unit cannot reference itself")
	ErrInvalidKind    = errors.New("kind must be one of P, N, H")
	ErrKindMismatch   = errors.New("operation not allowed for this kind")
	ErrCycle          = errors.New("would create a cycle")
	ErrDuplicate      = errors.New("relation already exists")
	ErrNoRelation     = errors.New("relation does not exist")
	ErrParentMismatch = errors.New("equivalent units must have the same parents")
	ErrChildMismatch  = errors.New("equivalent units must have the same children")
	ErrAlreadyMember  = errors.New("unit already belongs to a fact")
	ErrInvalidColor   = errors.New("invalid color")
	ErrInvalidFilter  = errors.New("invalid filter")
)

// ErrorClass is the coarse category of a validation failure.
type ErrorClass string

const (
	ClassSchema    ErrorClass = "schema"
	ClassValue     ErrorClass = "value"
	ClassReference ErrorClass = "reference"
	ClassInvariant ErrorClass = "invariant"
)

// Rule identifies a single import validation rule. Rules are checked in the
// order they are declared here; the first failure aborts the import.
type Rule string

const (
	RuleMissingColumns    Rule = "missing_columns"
	RuleReservedColumn    Rule = "reserved_column"
	RuleDuplicateColumns  Rule = "duplicate_columns"
	RuleNameSeparator     Rule = "name_separator"
	RuleEmptyName         Rule = "empty_name"
	RuleDuplicateName     Rule = "duplicate_name"
	RuleUnknownReference  Rule = "unknown_reference"
	RuleRepeatedInRecord  Rule = "repeated_in_record"
	RuleCycle             Rule = "cycle"
	RuleAsymmetricEquiv   Rule = "asymmetric_equivalence"
	RuleEquivParents      Rule = "equivalence_parents"
	RuleEquivChildren     Rule = "equivalence_children"
	RuleMemberExclusivity Rule = "member_exclusivity"
	RuleMissingKind       Rule = "missing_kind"
	RuleIllegalKind       Rule = "illegal_kind"
	RuleStructuralMembers Rule = "structural_members"
	RuleFactRelations     Rule = "fact_relations"
	RuleFactInRelations   Rule = "fact_in_relations"
)

var ruleClasses = map[Rule]ErrorClass{
	RuleMissingColumns:    ClassSchema,
	RuleReservedColumn:    ClassSchema,
	RuleDuplicateColumns:  ClassSchema,
	RuleNameSeparator:     ClassValue,
	RuleEmptyName:         ClassValue,
	RuleDuplicateName:     ClassValue,
	RuleUnknownReference:  ClassReference,
	RuleRepeatedInRecord:  ClassInvariant,
	RuleCycle:             ClassInvariant,
	RuleAsymmetricEquiv:   ClassInvariant,
	RuleEquivParents:      ClassInvariant,
	RuleEquivChildren:     ClassInvariant,
	RuleMemberExclusivity: ClassInvariant,
	RuleMissingKind:       ClassValue,
	RuleIllegalKind:       ClassValue,
	RuleStructuralMembers: ClassInvariant,
	RuleFactRelations:     ClassInvariant,
	RuleFactInRelations:   ClassInvariant,
}

// Class returns the error class the rule belongs to.
func (r Rule) Class() ErrorClass { return ruleClasses[r] }

// ValidationError reports the first rule a candidate dataset violates.
type ValidationError struct {
	Rule   Rule
	Units  []string // offending names, column names for schema rules
	Rows   []int    // zero-based data row indexes, when meaningful
	Cycles [][]string
	Detail string
}

// Class returns the taxonomy class of the violated rule.
func (e *ValidationError) Class() ErrorClass { return e.Rule.Class() }

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error (%s): %s", e.Class(), e.Rule, e.Detail)
	if len(e.Cycles) > 0 {
		parts := make([]string, len(e.Cycles))
		for i, c := range e.Cycles {
			parts[i] = strings.Join(c, " -> ")
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	} else if len(e.Units) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Units, ", "))
	}
	return b.String()
}

func violation(rule Rule, detail string, units ...string) *ValidationError {
	return &ValidationError{Rule: rule, Detail: detail, Units: units}
}

// CommandError wraps a rejected interactive command.
type CommandError struct {
	Op    string
	Units []string
	Err   error
}

func (e *CommandError) Error() string {
	if len(e.Units) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, strings.Join(e.Units, ", "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func reject(op string, err error, units ...string) error {
	return &CommandError{Op: op, Units: units, Err: err}
}
