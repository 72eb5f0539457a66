package service

import "errors"

// Classification errors for the HTTP layer. Anything not matching one of
// these is a catalog failure and surfaces as a server error; partial results
// are never returned in that case.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrCityNotFound    = errors.New("city not found")
	ErrProductNotFound = errors.New("product not found")
)
