package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapzone/lapzone-backend/api/middleware"
	cartsvc "github.com/lapzone/lapzone-backend/internal/cart"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
)

type stubCartService struct {
	msg         string
	err         error
	view        *cartsvc.View
	lastSession string
	lastInput   cartsvc.AddInput
}

func (s *stubCartService) Add(ctx context.Context, sessionID string, input cartsvc.AddInput) (string, error) {
	s.lastSession = sessionID
	s.lastInput = input
	return s.msg, s.err
}

func (s *stubCartService) Update(ctx context.Context, sessionID string, productID int64, quantity int) (string, error) {
	s.lastSession = sessionID
	return s.msg, s.err
}

func (s *stubCartService) Remove(ctx context.Context, sessionID string, productID int64) (string, error) {
	s.lastSession = sessionID
	return s.msg, s.err
}

func (s *stubCartService) View(ctx context.Context, sessionID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	return s.view, s.err
}

func (s *stubCartService) Load(ctx context.Context, sessionID string) (*cartsvc.Cart, error) {
	return nil, nil
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	return nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func cartRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
}

func decodeMessage(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Data messageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data.Message
}

func TestAddCartItemSuccess(t *testing.T) {
	svc := &stubCartService{msg: cartsvc.MsgAdded}
	handler := AddCartItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, cartRequest(`{"product_id": 1, "quantity": 2}`))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, cartsvc.MsgAdded, decodeMessage(t, resp.Body.Bytes()))
	assert.Equal(t, "sess-1", svc.lastSession)
	assert.Equal(t, int64(1), svc.lastInput.ProductID)
}

func TestAddCartItemMalformedBodyStays200(t *testing.T) {
	svc := &stubCartService{msg: cartsvc.MsgAdded}
	handler := AddCartItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, cartRequest(`{"product_id": "not a number"`))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, cartsvc.MsgError, decodeMessage(t, resp.Body.Bytes()))
}

func TestAddCartItemValidationErrorStays200(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeValidation, cartsvc.MsgError)}
	handler := AddCartItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, cartRequest(`{"product_id": 1, "quantity": 0}`))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, cartsvc.MsgError, decodeMessage(t, resp.Body.Bytes()))
}

func TestAddCartItemUnknownProductIs404(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := AddCartItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, cartRequest(`{"product_id": 99, "quantity": 1}`))

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetCartReturnsView(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{TotalQuantity: 3}}
	handler := GetCart(svc, testControllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithCartSession(req.Context(), "sess-1"))
	resp := httptest.NewRecorder()
	handler(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.TotalQuantity)
}

func TestRemoveCartItem(t *testing.T) {
	svc := &stubCartService{msg: cartsvc.MsgRemoved}
	handler := RemoveCartItem(svc, testControllerLogger())

	resp := httptest.NewRecorder()
	handler(resp, cartRequest(`{"product_id": 1}`))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, cartsvc.MsgRemoved, decodeMessage(t, resp.Body.Bytes()))
}
