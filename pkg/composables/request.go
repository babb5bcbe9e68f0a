package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harborpeak/coverdesk/pkg/constants"
)

var ErrNoOrgID = errors.New("org id not found in context")

func WithOrgID(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.OrgIDKey, orgID)
}

func UseOrgID(ctx context.Context) (uuid.UUID, error) {
	orgID, ok := ctx.Value(constants.OrgIDKey).(uuid.UUID)
	if !ok || orgID == uuid.Nil {
		return uuid.Nil, ErrNoOrgID
	}
	return orgID, nil
}

// UseLogger returns the request-scoped logger entry from the context.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic("logger not found")
	}
	return logger.(*logrus.Entry)
}

func UseRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(constants.RequestIDKey).(string)
	return requestID
}
