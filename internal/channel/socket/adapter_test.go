package socket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/realtime"
	"github.com/storelane/notification-service/internal/templates"
)

type fakeSession struct {
	id      string
	sent    [][]byte
	sendErr error
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(payload []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, payload)
	return nil
}

func (s *fakeSession) Close() error { return nil }

func newAdapter(reg *realtime.Registry) *Adapter {
	return NewAdapter(reg, channel.NewRenderer(templates.NewStore()))
}

func TestAdapter_Send_Online(t *testing.T) {
	reg := realtime.NewRegistry()
	session := &fakeSession{id: "s1"}
	reg.Register("u1", session)

	a := newAdapter(reg)

	n := model.Notification{ID: uuid.New(), UserID: "u1", Type: model.TypeOrderPlaced, Title: "Order", Body: "Placed"}
	res := a.Send(context.Background(), n, model.RecipientEndpoints{})

	assert.True(t, res.Success())
	assert.True(t, res.Delivered) // socket write is synchronous delivery

	var f frame
	assert.NoError(t, json.Unmarshal(session.sent[0], &f))
	assert.Equal(t, n.ID.String(), f.ID)
	assert.Equal(t, model.TypeOrderPlaced, f.Type)
}

func TestAdapter_Send_Offline(t *testing.T) {
	a := newAdapter(realtime.NewRegistry())

	res := a.Send(context.Background(), model.Notification{UserID: "u1"}, model.RecipientEndpoints{})

	assert.False(t, res.Success())
	cerr := channel.AsError(res.Err)
	assert.False(t, cerr.Retryable) // no queued realtime delivery
}

func TestAdapter_Send_DeadSession(t *testing.T) {
	reg := realtime.NewRegistry()
	reg.Register("u1", &fakeSession{id: "s1", sendErr: errors.New("broken pipe")})

	a := newAdapter(reg)
	res := a.Send(context.Background(), model.Notification{UserID: "u1"}, model.RecipientEndpoints{})

	assert.False(t, res.Success())
	assert.False(t, channel.AsError(res.Err).Retryable)
}
