package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/mocks"
	"messaging-service/internal/observability"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	observability.SetPublisher(pub)
	t.Cleanup(func() { observability.SetPublisher(nil) })

	userID := 7
	pub.On("PublishJSON", mock.Anything, "audit.test", mock.MatchedBy(func(msg interface{}) bool {
		env, ok := msg.(AuditEnvelope)
		return ok &&
			env.EventType == "audit_log" &&
			env.Service == "messaging-service" &&
			env.RequestID == "req-1" &&
			env.UserID != nil && *env.UserID == 7 &&
			env.Payload.Level == "INFO" && env.Payload.Text == "hello"
	}), mock.Anything).Return(nil).Once()

	emitter := NewAuditEmitter("audit.test", "messaging-service", "test")
	emitter.Emit(context.Background(), "INFO", "hello", "req-1", &userID)

	pub.AssertExpectations(t)
}

func TestEmitNilEmitterIsNoOp(t *testing.T) {
	pub := new(mocks.PublisherMock)
	observability.SetPublisher(pub)
	t.Cleanup(func() { observability.SetPublisher(nil) })

	var emitter *AuditEmitter
	emitter.Emit(context.Background(), "INFO", "ignored", "", nil)

	pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
