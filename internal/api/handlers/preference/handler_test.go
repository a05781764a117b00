package preference

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/storelane/notification-service/internal/api/dto"
	"github.com/storelane/notification-service/internal/model"
	prefsvc "github.com/storelane/notification-service/internal/service/preference"
)

type fakePrefService struct {
	prefs     model.RecipientPreference
	updated   *model.RecipientPreference
	updateErr error
	resets    int
}

func (s *fakePrefService) Get(_ context.Context, _ string) (model.RecipientPreference, error) {
	return s.prefs, nil
}

func (s *fakePrefService) Update(_ context.Context, p model.RecipientPreference) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = &p
	return nil
}

func (s *fakePrefService) Reset(_ context.Context, _ string) error {
	s.resets++
	return nil
}

func TestHandler_Get(t *testing.T) {
	svc := &fakePrefService{prefs: model.DefaultPreferences("u1")}
	h := NewHandler(svc, validator.New())

	req := httptest.NewRequest(http.MethodGet, "/api/preferences/u1", nil)
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestHandler_Update(t *testing.T) {
	svc := &fakePrefService{}
	h := NewHandler(svc, validator.New())

	body, _ := json.Marshal(dto.PreferenceRequest{
		Channels:   map[string]bool{"push": false, "sms": true},
		QuietStart: "22:00",
		QuietEnd:   "08:00",
		Timezone:   "UTC",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/preferences/u1", bytes.NewReader(body))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}

	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, "u1", svc.updated.UserID)
	assert.False(t, svc.updated.Channels[model.ChannelPush])
	assert.True(t, svc.updated.Channels[model.ChannelSMS])
	assert.Equal(t, "22:00", svc.updated.QuietStart)
}

func TestHandler_Update_RejectsUnknownChannel(t *testing.T) {
	svc := &fakePrefService{}
	h := NewHandler(svc, validator.New())

	body, _ := json.Marshal(dto.PreferenceRequest{
		Channels: map[string]bool{"pigeon": true},
	})
	req := httptest.NewRequest(http.MethodPut, "/api/preferences/u1", bytes.NewReader(body))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}

	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	assert.Nil(t, svc.updated)
}

func TestHandler_Update_BadQuietHours(t *testing.T) {
	svc := &fakePrefService{updateErr: prefsvc.ErrInvalidQuietHours}
	h := NewHandler(svc, validator.New())

	body, _ := json.Marshal(dto.PreferenceRequest{QuietStart: "22:00"})
	req := httptest.NewRequest(http.MethodPut, "/api/preferences/u1", bytes.NewReader(body))
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}

	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandler_Reset(t *testing.T) {
	svc := &fakePrefService{}
	h := NewHandler(svc, validator.New())

	req := httptest.NewRequest(http.MethodDelete, "/api/preferences/u1", nil)
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "user_id", Value: "u1"}}

	h.Reset(c)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, 1, svc.resets)
}
