package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/internal/cart"
	"github.com/lapzone/lapzone-backend/internal/users"
	"github.com/lapzone/lapzone-backend/pkg/config"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
	"github.com/lapzone/lapzone-backend/pkg/mail"
)

type fakeCartStore struct {
	slots map[string][]byte
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{slots: map[string][]byte{}}
}

func (f *fakeCartStore) Load(ctx context.Context, sessionID string) (map[string]cart.Line, error) {
	raw, ok := f.slots[sessionID]
	if !ok {
		return nil, nil
	}
	var lines map[string]cart.Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (f *fakeCartStore) Save(ctx context.Context, sessionID string, lines map[string]cart.Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	f.slots[sessionID] = raw
	return nil
}

func (f *fakeCartStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.slots, sessionID)
	return nil
}

type stubCarts struct {
	store  *fakeCartStore
	clears int
}

func (s *stubCarts) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return cart.New(ctx, s.store, sessionID)
}

func (s *stubCarts) Clear(ctx context.Context, sessionID string) error {
	s.clears++
	return s.store.Delete(ctx, sessionID)
}

type stubIdentities struct {
	byID      map[uuid.UUID]*models.User
	byEmail   map[string]*models.User
	backfills int
	createErr error
}

func newStubIdentities() *stubIdentities {
	return &stubIdentities{
		byID:    map[uuid.UUID]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (s *stubIdentities) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *stubIdentities) GetOrCreateByEmail(ctx context.Context, input users.ProfileInput) (*models.User, bool, error) {
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	if user, ok := s.byEmail[input.Email]; ok {
		return user, false, nil
	}
	user := &models.User{ID: uuid.New(), Email: input.Email, Username: input.Username}
	s.byEmail[input.Email] = user
	s.byID[user.ID] = user
	return user, true, nil
}

func (s *stubIdentities) BackfillEmptyNames(ctx context.Context, user *models.User, firstName, lastName string) error {
	s.backfills++
	if user.FirstName == "" {
		user.FirstName = firstName
	}
	if user.LastName == "" {
		user.LastName = lastName
	}
	return nil
}

type stubTx struct{ runs int }

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.runs++
	return fn(nil)
}

type stubOrders struct {
	created *models.Order
	err     error
}

func (s *stubOrders) CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.created = order
	return nil
}

type stubMailer struct {
	sent []mail.Message
	err  error
}

func (s *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type stubSessions struct{ refresh string }

func (s stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refresh, nil
}

type checkoutFixture struct {
	svc        Service
	carts      *stubCarts
	identities *stubIdentities
	tx         *stubTx
	orders     *stubOrders
	mailer     *stubMailer
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	f := &checkoutFixture{
		carts:      &stubCarts{store: newFakeCartStore()},
		identities: newStubIdentities(),
		tx:         &stubTx{},
		orders:     &stubOrders{},
		mailer:     &stubMailer{},
	}
	svc, err := NewService(Deps{
		Carts:    f.carts,
		Users:    f.identities,
		Tx:       f.tx,
		Orders:   f.orders,
		Mailer:   f.mailer,
		Sessions: stubSessions{refresh: "refresh-token"},
		JWT:      config.JWTConfig{Secret: "secret", Issuer: "lapzone", ExpirationMinutes: 15},
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *checkoutFixture) seedCart(t *testing.T, sessionID string, lines map[string]cart.Line) {
	t.Helper()
	require.NoError(t, f.carts.store.Save(context.Background(), sessionID, lines))
}

func anonInput() Input {
	return Input{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+380501112233",
		Address:   "1 Analytical Way",
	}
}

func TestCheckoutEmptyCartRejectedBeforeSideEffects(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Process(context.Background(), "s1", uuid.Nil, anonInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, f.mailer.sent)
	assert.Zero(t, f.carts.clears)
	assert.Nil(t, f.orders.created)
}

func TestCheckoutAnonymousWithoutProfileClearsCartNoOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 2, Price: decimal.RequireFromString("100.00")},
	})

	result, err := f.svc.Process(context.Background(), "s1", uuid.Nil, anonInput())
	require.NoError(t, err)

	assert.Nil(t, result.OrderID)
	assert.Equal(t, "/", result.Redirect)
	assert.Nil(t, f.orders.created)
	assert.Equal(t, 1, f.carts.clears)

	// The receipt still goes to the form email.
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ada@example.com", f.mailer.sent[0].To)
	assert.Contains(t, result.Notices, "We've just sent a receipt email to ada@example.com")

	// No order id leaks into the serialized response.
	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "order_id")
}

func TestCheckoutAuthenticatedCreatesOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	userID := uuid.New()
	f.identities.byID[userID] = &models.User{ID: userID, Email: "bob@example.com", Username: "bob"}
	f.seedCart(t, "s1", map[string]cart.Line{
		"3": {Quantity: 2, Price: decimal.RequireFromString("899.99")},
		"7": {Quantity: 1, Price: decimal.RequireFromString("0.02")},
	})

	// Identity fields are ignored for authenticated callers.
	result, err := f.svc.Process(context.Background(), "s1", userID, Input{})
	require.NoError(t, err)

	require.NotNil(t, f.orders.created)
	order := f.orders.created
	require.NotNil(t, result.OrderID)
	assert.Equal(t, *result.OrderID, order.ID)
	assert.Equal(t, userID, order.UserID)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("1800.00")))
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(3), order.Items[0].ProductID)
	assert.Equal(t, int64(7), order.Items[1].ProductID)

	// Item totals sum exactly to the frozen order total.
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.TotalPrice)
	}
	assert.True(t, sum.Equal(order.TotalPrice))

	assert.Equal(t, 1, f.tx.runs)
	assert.Equal(t, 1, f.carts.clears)
	assert.Equal(t, fmt.Sprintf("/order/%s/", order.ID), result.Redirect)
	assert.Contains(t, result.Notices, MsgOrderCreated)

	// Receipt goes to the account email, not the form one.
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "bob@example.com", f.mailer.sent[0].To)
}

func TestCheckoutAuthenticatedBackfillsNames(t *testing.T) {
	f := newCheckoutFixture(t)
	userID := uuid.New()
	f.identities.byID[userID] = &models.User{ID: userID, Email: "bob@example.com"}
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("10.00")},
	})

	_, err := f.svc.Process(context.Background(), "s1", userID, Input{FirstName: "Bob", LastName: "Builder"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.identities.backfills)
	assert.Equal(t, "Bob", f.identities.byID[userID].FirstName)
}

func TestCheckoutAnonymousProfileCreationSignsIn(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("49.99")},
	})

	input := anonInput()
	input.CreateProfile = true
	input.Username = "ada"
	input.Password = "correct-horse"

	result, err := f.svc.Process(context.Background(), "s1", uuid.Nil, input)
	require.NoError(t, err)

	require.NotNil(t, f.orders.created)
	require.NotNil(t, result.OrderID)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "refresh-token", result.RefreshToken)
	assert.Contains(t, result.Notices, "Successfully signed in as ada.")

	// Confirmation plus receipt for a newly created profile.
	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "Confirm your LapZone account", f.mailer.sent[0].Subject)
	assert.Equal(t, "ada@example.com", f.mailer.sent[1].To)
}

func TestCheckoutExistingProfileGetsNoConfirmation(t *testing.T) {
	f := newCheckoutFixture(t)
	existing := &models.User{ID: uuid.New(), Email: "ada@example.com", Username: "ada"}
	f.identities.byEmail["ada@example.com"] = existing
	f.identities.byID[existing.ID] = existing
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("5.00")},
	})

	input := anonInput()
	input.CreateProfile = true
	input.Username = "ada"
	input.Password = "correct-horse"

	result, err := f.svc.Process(context.Background(), "s1", uuid.Nil, input)
	require.NoError(t, err)

	require.NotNil(t, f.orders.created)
	assert.Equal(t, existing.ID, f.orders.created.UserID)
	assert.NotEmpty(t, result.AccessToken)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, receiptSubject, f.mailer.sent[0].Subject)
}

func TestCheckoutReceiptFailureNeverAbortsOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.mailer.err = fmt.Errorf("smtp down")
	userID := uuid.New()
	f.identities.byID[userID] = &models.User{ID: userID, Email: "bob@example.com"}
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("10.00")},
	})

	result, err := f.svc.Process(context.Background(), "s1", userID, Input{})
	require.NoError(t, err)
	require.NotNil(t, f.orders.created)
	require.NotNil(t, result.OrderID)
}

func TestCheckoutIdentityFailureStillClearsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.identities.createErr = fmt.Errorf("db down")
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("10.00")},
	})

	input := anonInput()
	input.CreateProfile = true
	input.Username = "ada"
	input.Password = "correct-horse"

	_, err := f.svc.Process(context.Background(), "s1", uuid.Nil, input)
	require.Error(t, err)
	assert.Nil(t, f.orders.created)
	assert.Equal(t, 1, f.carts.clears)
}

func TestCheckoutValidationByAuthState(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, "s1", map[string]cart.Line{
		"1": {Quantity: 1, Price: decimal.RequireFromString("10.00")},
	})

	// Anonymous callers must fill the identity fields.
	_, err := f.svc.Process(context.Background(), "s1", uuid.Nil, Input{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, f.mailer.sent)

	// Profile creation additionally demands credentials.
	input := anonInput()
	input.CreateProfile = true
	_, err = f.svc.Process(context.Background(), "s1", uuid.Nil, input)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	fields, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
}
