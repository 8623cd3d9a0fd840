// Package validation validates configuration structs with
// go-playground/validator tags and reports failures as *errors.AppError
// whose details name the offending keys by their mapstructure path.
package validation
