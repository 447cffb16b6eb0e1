package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/room-access/internal/logging"
)

// AccessService answers room access checks.
type AccessService struct {
	reader AccessReader
	logger *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(reader AccessReader) *AccessService {
	return NewAccessServiceWithLogger(reader, nil)
}

// NewAccessServiceWithLogger constructs an AccessService with a specified logger.
func NewAccessServiceWithLogger(reader AccessReader, logger *zap.Logger) *AccessService {
	return &AccessService{reader: reader, logger: logging.Default(logger)}
}

func (s *AccessService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "AccessService", operation, fields...)
}

// CheckAccess decides whether principal may join the room identified by
// publicUUID. Denials are returned as decisions; the error is reserved for
// malformed identifiers and data store failures.
func (s *AccessService) CheckAccess(ctx context.Context, publicUUID string, principal Principal) (decision AccessDecision, err error) {
	if s == nil || s.reader == nil {
		err = fmt.Errorf("AccessService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CheckAccess",
		zap.String("room_uuid", publicUUID),
		zap.Int64("principal_id", principal.UserID),
	)

	var eval Evaluation
	defer func() {
		if err != nil {
			logger.Error("access check failed", errorFields(err)...)
			return
		}
		fields := []zap.Field{
			zap.String("rule", eval.Rule),
			zap.Bool("can_join", decision.CanJoin),
			zap.String("role", string(decision.Role)),
		}
		if decision.Reason != nil {
			fields = append(fields, zap.String("reason", *decision.Reason))
		}
		logger.Info("access decided", fields...)
	}()

	var normalized string
	normalized, err = NormalizeRoomUUID(publicUUID)
	if err != nil {
		return
	}

	eval, err = Evaluate(ctx, s.reader, principal, normalized)
	if err != nil {
		return
	}
	decision = BuildAccessDecision(eval)
	return
}

// NormalizeRoomUUID validates a public room identifier and returns its
// canonical lower-case form.
func NormalizeRoomUUID(value string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("room_uuid", "must be a valid UUID")
		return "", vErr
	}
	return parsed.String(), nil
}
