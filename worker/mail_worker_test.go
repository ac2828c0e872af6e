package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"momentum/utils"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, data utils.EmailData) error {
	return m.Called(ctx, data).Error(0)
}

func toAddress(addr string) interface{} {
	return mock.MatchedBy(func(d utils.EmailData) bool {
		return len(d.To) == 1 && d.To[0] == addr
	})
}

func init() {
	logrus.SetOutput(io.Discard)
}

func TestSendOTPIsSynchronous(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(d utils.EmailData) bool {
		return d.Template == utils.TemplateOTP && d.To[0] == "a@example.com"
	})).Return(nil).Once()
	mailer.On("Send", mock.Anything, toAddress("down@example.com")).Return(errors.New("smtp down")).Once()

	d := NewMailDispatcher(mailer, 1)
	require.NoError(t, d.SendOTP(context.Background(), "a@example.com", "A", "123456"))
	assert.EqualError(t, d.SendOTP(context.Background(), "down@example.com", "D", "123456"), "smtp down")
	mailer.AssertExpectations(t)
}

func TestCredentialsQueue(t *testing.T) {
	mailer := &mockMailer{}
	delivered := make(chan string, 2)
	mailer.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		delivered <- args.Get(1).(utils.EmailData).To[0]
	}).Return(nil)

	d := NewMailDispatcher(mailer, 1)
	require.NoError(t, d.SendCredentials(context.Background(), "first@example.com", "First", "https://app/login", "pw"))
	assert.ErrorIs(t, d.SendCredentials(context.Background(), "second@example.com", "Second", "https://app/login", "pw"), ErrQueueFull)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	select {
	case to := <-delivered:
		assert.Equal(t, "first@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatal("credentials mail was not delivered")
	}

	cancel()
	<-done
	mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestStartDrainsOnShutdown(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("unreachable"))

	d := NewMailDispatcher(mailer, 5)
	for _, addr := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, d.SendCredentials(context.Background(), addr, "", "https://app/login", "pw"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	mailer.AssertNumberOfCalls(t, "Send", 3)
	assert.Empty(t, d.queue)
}
