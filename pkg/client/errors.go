package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"afriotv/internal/notify"
)

// LoginFailedTitle is the title of every sign-in failure notice.
const LoginFailedTitle = "Login Failed"

// FriendlyAuthError turns a sign-in failure into the text shown to the
// user.
func FriendlyAuthError(err error) string {
	var apiErr *APIError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "The sign-in process was cancelled. Please try again."
	case errors.As(err, &apiErr):
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Status == http.StatusUnauthorized && msg == "invalid credentials":
			return "The email or password you entered is incorrect. Please double-check and try again."
		case apiErr.Status == http.StatusNotFound && strings.Contains(msg, "user not found"):
			return "No account was found with that email address. Please sign up first."
		case strings.Contains(msg, "wrong password"):
			return "The password you entered is incorrect. Please try again."
		case msg == "access_denied":
			return "The Google sign-in window was closed before completing. Please try again."
		case apiErr.Status == http.StatusConflict:
			return "An account with that email address already exists. Please sign in instead."
		}
	case errors.As(err, &netErr):
		return "A network error occurred. Please check your internet connection."
	}
	return "An unexpected error occurred. Please try again."
}

// LoginFailed is the destructive notice for a sign-in failure.
func LoginFailed(err error) notify.Notice {
	return notify.Notice{
		Title:       LoginFailedTitle,
		Description: FriendlyAuthError(err),
		Destructive: true,
	}
}
