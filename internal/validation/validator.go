// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package validation provides request-struct validation on top of
// go-playground/validator v10 with a thread-safe singleton instance and
// custom validators for the Goalpost enum types.
//
//	type CreateGoalRequest struct {
//	    Title         string `validate:"required,max=120"`
//	    StickerTarget int    `validate:"required,min=1"`
//	    Mode          string `validate:"required,goal_mode"`
//	    Visibility    string `validate:"required,goal_visibility"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Fields() lists per-field messages
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mjseo/goalpost/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// RequestValidationError aggregates the per-field failures of one request.
type RequestValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *RequestValidationError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	return strings.Join(e.fields, "; ")
}

// Fields returns the individual field failure messages.
func (e *RequestValidationError) Fields() []string {
	return e.fields
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Enum validators backed by the closed model types, so the
		// boundary and the domain can never disagree on what is valid.
		mustRegister("goal_mode", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseGoalMode(fl.Field().String())
			return ok
		})
		mustRegister("goal_visibility", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseGoalVisibility(fl.Field().String())
			return ok
		})
		mustRegister("invitation_decision", func(fl validator.FieldLevel) bool {
			return models.InvitationDecision(fl.Field().String()).Valid()
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validator %q: %v", tag, err))
	}
}

// ValidateStruct validates v and returns nil or a *RequestValidationError.
func ValidateStruct(v interface{}) *RequestValidationError {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return &RequestValidationError{fields: []string{"invalid value passed to validator"}}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{fields: []string{err.Error()}}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describe(fe))
	}
	return &RequestValidationError{fields: fields}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "goal_mode":
		return fmt.Sprintf("%s must be one of personal, competition, challenger_recruitment", field)
	case "goal_visibility":
		return fmt.Sprintf("%s must be one of public, followers, private", field)
	case "invitation_decision":
		return fmt.Sprintf("%s must be accept or reject", field)
	case "ne":
		return fmt.Sprintf("%s must not equal %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
