// Package guard provides ConstructorGuard, a marker embedded in value objects,
// commands and queries so that zero values can be told apart from instances
// built through their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller does not
// supply a more specific error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the enclosing object went through its
// constructor. The zero value reports "not constructed".
//
// Example:
//
//	var ErrStartDispatchCommandIsNotConstructed = errors.New("StartDispatchCommand must be created via NewStartDispatchCommand")
//
//	type StartDispatchCommand struct {
//	    chainID kernel.UUID
//	    guard   guard.ConstructorGuard
//	}
//
//	func (c StartDispatchCommand) Validate() error {
//	    return c.guard.Validate(ErrStartDispatchCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard. Otherwise it returns
// validationError, or ErrDefaultConstructorGuard when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
