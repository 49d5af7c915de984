package registration

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andre-2112/cloud-cli-access/notify"
	"github.com/andre-2112/cloud-cli-access/token"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(rec *notify.Recorder) (*Service, *token.Codec) {
	codec := token.New("test-secret", token.WithNow(func() time.Time { return testNow }))
	logger := log.New(io.Discard, "", 0)
	svc := NewService(codec, rec, logger, WithServiceNow(func() time.Time { return testNow }))
	return svc, codec
}

func aliceRequest() Request {
	return Request{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "A",
	}
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	rec := &notify.Recorder{}
	svc, codec := newTestService(rec)

	res, err := svc.Register(context.Background(), aliceRequest(), "https://auth.example.com")
	require.NoError(t, err)

	assert.Equal(t, StatusPendingApproval, res.Status)
	assert.NotEmpty(t, res.ApproveToken)
	assert.NotEmpty(t, res.DenyToken)
	assert.NotEqual(t, res.ApproveToken, res.DenyToken)

	approved, err := codec.Decode(res.ApproveToken, token.ActionApprove)
	require.NoError(t, err)
	denied, err := codec.Decode(res.DenyToken, token.ActionDeny)
	require.NoError(t, err)

	// Same payload, different action binding.
	assert.Equal(t, approved, denied)
	assert.Equal(t, "alice", approved.Username)
	assert.Equal(t, testNow, approved.SubmittedAt)
	assert.Equal(t, testNow.Add(PendingTTL), approved.ExpiresAt)
}

func TestRegisterNotifiesAdminWithBothLinks(t *testing.T) {
	rec := &notify.Recorder{}
	svc, _ := newTestService(rec)

	res, err := svc.Register(context.Background(), aliceRequest(), "https://auth.example.com")
	require.NoError(t, err)

	require.Len(t, rec.ApprovalRequests, 1)
	sent := rec.ApprovalRequests[0]
	assert.Equal(t, "alice", sent.Payload.Username)
	assert.Equal(t, "https://auth.example.com/approve?token="+res.ApproveToken, sent.ApproveURL)
	assert.Equal(t, "https://auth.example.com/deny?token="+res.DenyToken, sent.DenyURL)
}

func TestRegisterValidation(t *testing.T) {
	rec := &notify.Recorder{}
	svc, _ := newTestService(rec)

	t.Run("missing fields are named", func(t *testing.T) {
		_, err := svc.Register(context.Background(), Request{Email: "a@example.com"}, "https://auth.example.com")

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"username", "first_name", "last_name"}, verr.Missing)
		assert.Contains(t, verr.Error(), "username")
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		req := aliceRequest()
		req.Email = "not-an-email"
		_, err := svc.Register(context.Background(), req, "https://auth.example.com")

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "invalid email address", verr.Reason)
	})

	t.Run("nothing notified on validation failure", func(t *testing.T) {
		assert.Empty(t, rec.ApprovalRequests)
	})
}

func TestRegisterFailsWhenNotificationFails(t *testing.T) {
	rec := &notify.Recorder{ApprovalErr: errors.New("ses unavailable")}
	svc, _ := newTestService(rec)

	_, err := svc.Register(context.Background(), aliceRequest(), "https://auth.example.com")
	require.Error(t, err)
	assert.ErrorContains(t, err, "ses unavailable")
}
