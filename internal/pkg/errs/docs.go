// Package errs holds the error vocabulary shared by the dispatch core and
// its adapters.
//
// Each kind has a sentinel (ErrObjectNotFound, ErrValueIsInvalid,
// ErrValueIsOutOfRange, ErrValueIsRequired, ErrVersionIsInvalid) and a
// struct type carrying the offending parameter. The struct types unwrap to
// their sentinel, so callers classify with errors.Is:
//
//	if errors.Is(err, errs.ErrObjectNotFound) {
//		return ctx.JSON(http.StatusNotFound, ...)
//	}
//
// The HTTP adapter maps the sentinels onto status codes; use cases return
// them unchanged.
package errs
