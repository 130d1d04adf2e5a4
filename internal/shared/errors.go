package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrParse              = fmt.Errorf("unexpected response shape")
	ErrProjectNotFound    = fmt.Errorf("project not found")
	ErrSceneNotFound      = fmt.Errorf("scene not found")
	ErrJobNotFound        = fmt.Errorf("render job not found")

	// Workflow errors
	ErrValidation   = fmt.Errorf("validation failed")
	ErrRenderFailed = fmt.Errorf("render failed")
	ErrPollTimeout  = fmt.Errorf("render polling gave up")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
