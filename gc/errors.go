// Package gc implements the copying garbage collector and region memory
// manager for packed, cursor-addressable algebraic data values.
package gc

import (
	"fmt"

	"github.com/pkg/errors"
)

// InfoTableError reports a failure in the info table: double
// initialization, use before initialization, a duplicate constructor
// registration, or a scalar/packed shape mismatch.
type InfoTableError struct {
	Op       string
	Datatype Datatype
	Tag      *Tag
	Msg      string
}

func (e *InfoTableError) Error() string {
	if e.Tag != nil {
		return fmt.Sprintf("info-table: %s: datatype=%d tag=%d: %s", e.Op, e.Datatype, *e.Tag, e.Msg)
	}
	return fmt.Sprintf("info-table: %s: datatype=%d: %s", e.Op, e.Datatype, e.Msg)
}

func newInfoTableErr(op string, dt Datatype, msg string) error {
	return errors.WithStack(&InfoTableError{Op: op, Datatype: dt, Msg: msg})
}

func newInfoTableTagErr(op string, dt Datatype, tag Tag, msg string) error {
	t := tag
	return errors.WithStack(&InfoTableError{Op: op, Datatype: dt, Tag: &t, Msg: msg})
}

// GcError reports a failure during collection: nursery exhaustion while
// evacuating, or a lookup of an unregistered datatype.
type GcError struct {
	Op        string
	Datatype  Datatype
	Requested int64
	Available int64
	Msg       string
}

func (e *GcError) Error() string {
	if e.Requested != 0 || e.Available != 0 {
		return fmt.Sprintf("gc: %s: datatype=%d requested=%d available=%d: %s",
			e.Op, e.Datatype, e.Requested, e.Available, e.Msg)
	}
	return fmt.Sprintf("gc: %s: datatype=%d: %s", e.Op, e.Datatype, e.Msg)
}

func newGcErr(op string, dt Datatype, msg string) error {
	return errors.WithStack(&GcError{Op: op, Datatype: dt, Msg: msg})
}

func newGcSpaceErr(op string, requested, available int64) error {
	return errors.WithStack(&GcError{
		Op:        op,
		Requested: requested,
		Available: available,
		Msg:       "out of space",
	})
}
