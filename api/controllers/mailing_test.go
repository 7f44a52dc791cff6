package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	mailingsvc "github.com/lapzone/lapzone-backend/internal/mailing"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
)

type stubMailingService struct {
	msg       string
	err       error
	lastEmail string
}

func (s *stubMailingService) Subscribe(ctx context.Context, email string) (string, error) {
	s.lastEmail = email
	return s.msg, s.err
}

func (s *stubMailingService) Unsubscribe(ctx context.Context, email string) (string, error) {
	s.lastEmail = email
	return s.msg, s.err
}

func subscriptionRequestWith(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mailing/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSubscribeCreated(t *testing.T) {
	svc := &stubMailingService{msg: mailingsvc.MsgSubscribed}
	handler := Subscribe(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, subscriptionRequestWith(`{"email": "fan@example.com"}`))

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, mailingsvc.MsgSubscribed, decodeMessage(t, resp.Body.Bytes()))
	assert.Equal(t, "fan@example.com", svc.lastEmail)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc := &stubMailingService{}
	handler := Subscribe(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, subscriptionRequestWith(`{"email": "nope"}`))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.lastEmail)
}

func TestSubscribeDuplicateConflict(t *testing.T) {
	svc := &stubMailingService{err: pkgerrors.New(pkgerrors.CodeConflict, "this email is already subscribed")}
	handler := Subscribe(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, subscriptionRequestWith(`{"email": "fan@example.com"}`))

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestUnsubscribe(t *testing.T) {
	svc := &stubMailingService{msg: mailingsvc.MsgUnsubscribed}
	handler := Unsubscribe(svc, testControllerLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/mailing/subscriptions", strings.NewReader(`{"email": "fan@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, mailingsvc.MsgUnsubscribed, decodeMessage(t, resp.Body.Bytes()))
}
