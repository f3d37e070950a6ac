package requesterrors

import (
	"net/http"

	"leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave request status transition",
		http.StatusBadRequest,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the owning employee may perform this action",
		http.StatusForbidden,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"caller is not the current approver for this request",
		http.StatusForbidden,
	)
	ErrHRConfirmationRequired = apperror.New(
		apperror.CodeForbidden,
		"request is awaiting HR confirmation and can only be actioned by HR",
		http.StatusForbidden,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting",
		http.StatusBadRequest,
	)
	ErrInvalidPriorityLevel = apperror.New(
		apperror.CodeInvalidInput,
		"priority level must be 'yellow' or 'red'",
		http.StatusBadRequest,
	)
	ErrPriorityNotYetEligible = apperror.New(
		apperror.CodeInvalidState,
		"request is not yet eligible for a priority badge",
		http.StatusBadRequest,
	)
	ErrPriorityAlreadySet = apperror.New(
		apperror.CodeConflict,
		"priority badge already set for this request",
		http.StatusConflict,
	)
)
