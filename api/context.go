package api

import (
	"context"
	"errors"
)

type keyType string

const (
	userIDKey       keyType = "userID"
	requestTokenKey keyType = "requestToken"
)

// ctxWithUserID adds a user ID to the context
func ctxWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// ctxGetUserID retrieves a user ID from the context
func ctxGetUserID(ctx context.Context) (string, error) {
	return ctxGetStringValue(ctx, userIDKey)
}

func ctxWithRequestToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, requestTokenKey, token)
}

// ctxGetRequestToken returns the client's request token, or "" when none was sent.
func ctxGetRequestToken(ctx context.Context) string {
	token, _ := ctxGetStringValue(ctx, requestTokenKey)
	return token
}

// ctxGetStringValue is a helper function to retrieve string values from the context by key
func ctxGetStringValue(ctx context.Context, key keyType) (string, error) {
	if ctxValue := ctx.Value(key); ctxValue == nil {
		return "", errors.New("key not found in context")
	} else if valueAsString, ok := ctxValue.(string); !ok {
		return "", errors.New("value is not of type `string`")
	} else {
		return valueAsString, nil
	}
}
