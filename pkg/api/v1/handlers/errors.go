// Package handlers provides HTTP request handling
package handlers

// Common error messages
const (
	ErrMsgInvalidReqBody   = "Invalid request body"
	ErrMsgValidationFailed = "Validation failed"
	ErrMsgForbidden        = "Not allowed to perform this action"
	ErrMsgInternal         = "Internal server error"
	ErrMsgUnauthorized     = "Missing or invalid session token"
)

// Auth error messages
const (
	ErrMsgInvalidCredentials = "Invalid username or password"
	ErrMsgLoginFailed        = "Failed to log in"
)

// Job error messages
const (
	ErrMsgInvalidJobID        = "Invalid job id"
	ErrMsgJobNotFound         = "Job not found"
	ErrMsgInvalidTransition   = "Job status does not allow this action"
	ErrMsgJobListFailed       = "Failed to list jobs"
	ErrMsgJobGetFailed        = "Failed to get job"
	ErrMsgJobCreateFailed     = "Failed to create job"
	ErrMsgJobUpdateFailed     = "Failed to update job"
	ErrMsgJobDeleteFailed     = "Failed to delete job"
	ErrMsgJobTransitionFailed = "Failed to change job status"
	ErrMsgJobCompletionFailed = "Failed to submit job completion"
)

// User error messages
const (
	ErrMsgInvalidUserID    = "Invalid user id"
	ErrMsgUserNotFound     = "User not found"
	ErrMsgGetUsersFailed   = "Failed to get users"
	ErrMsgGetUserFailed    = "Failed to get user"
	ErrMsgCreateUserFailed = "Failed to create user"
	ErrMsgDeleteUserFailed = "Failed to delete user"
)

// Machine error messages
const (
	ErrMsgMachineListFailed   = "Failed to list machines"
	ErrMsgMachineCreateFailed = "Failed to create machine"
)

// Pagination error messages
const (
	ErrMsgNegativePagination = "Page must be a positive number from 1"
)
