package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"github.com/storelane/notification-service/internal/api/dto"
	"github.com/storelane/notification-service/internal/model"
	attemptrepo "github.com/storelane/notification-service/internal/repository/attempt"
)

type fakeStatusService struct {
	channel    model.Channel
	externalID string
	delivered  bool
	calls      int
	err        error
}

func (s *fakeStatusService) HandleProviderStatus(_ context.Context, _ retry.Strategy, ch model.Channel, externalID string, delivered bool, _ string, _ time.Time) error {
	s.calls++
	s.channel = ch
	s.externalID = externalID
	s.delivered = delivered
	return s.err
}

func post(t *testing.T, handler *Handler, channel string, req dto.CallbackRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/api/callbacks/"+channel, bytes.NewReader(body))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = r
	c.Params = gin.Params{{Key: "channel", Value: channel}}

	handler.Receive(c)
	return w
}

func TestReceive_AppliesDeliveredReport(t *testing.T) {
	svc := &fakeStatusService{}
	h := NewHandler(svc, validator.New(), retry.Strategy{})

	w := post(t, h, "sms", dto.CallbackRequest{ExternalID: "sms-42", Delivered: true})

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, model.ChannelSMS, svc.channel)
	assert.Equal(t, "sms-42", svc.externalID)
	assert.True(t, svc.delivered)
}

func TestReceive_RejectsUnknownChannel(t *testing.T) {
	svc := &fakeStatusService{}
	h := NewHandler(svc, validator.New(), retry.Strategy{})

	w := post(t, h, "pigeon", dto.CallbackRequest{ExternalID: "x"})

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestReceive_RejectsSocket(t *testing.T) {
	// socket delivery is synchronous, providers never call back for it
	svc := &fakeStatusService{}
	h := NewHandler(svc, validator.New(), retry.Strategy{})

	w := post(t, h, "socket", dto.CallbackRequest{ExternalID: "x"})

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestReceive_RequiresExternalID(t *testing.T) {
	svc := &fakeStatusService{}
	h := NewHandler(svc, validator.New(), retry.Strategy{})

	w := post(t, h, "push", dto.CallbackRequest{Delivered: true})

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestReceive_UnknownExternalID(t *testing.T) {
	svc := &fakeStatusService{err: attemptrepo.ErrAttemptNotFound}
	h := NewHandler(svc, validator.New(), retry.Strategy{})

	w := post(t, h, "push", dto.CallbackRequest{ExternalID: "ghost"})

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}
