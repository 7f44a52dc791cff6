package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/internal/cart"
	"github.com/lapzone/lapzone-backend/internal/users"
	"github.com/lapzone/lapzone-backend/pkg/auth"
	"github.com/lapzone/lapzone-backend/pkg/config"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
	"github.com/lapzone/lapzone-backend/pkg/mail"
	"github.com/lapzone/lapzone-backend/pkg/metrics"
)

// User-facing notices, shown verbatim by the storefront.
const (
	MsgOrderCreated = "Order has successfully created."

	receiptSubject = "Thank you for your order from LapZone!"
	receiptBody    = "Your order has been received and is currently being processed."
)

// Input is the checkout form. Which fields are required depends on whether
// the caller is authenticated.
type Input struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Comment       string `json:"comment"`
	CreateProfile bool   `json:"create_profile"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

// Result reports what a checkout run produced. OrderID stays nil when no
// identity was resolved. The token pair is set only when checkout signed
// the caller in.
type Result struct {
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	Redirect     string    `json:"redirect"`
	Notices      []string  `json:"notices"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Service runs the checkout state machine.
type Service interface {
	Process(ctx context.Context, sessionID string, userID uuid.UUID, input Input) (*Result, error)
}

type cartAccessor interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type identityService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOrCreateByEmail(ctx context.Context, input users.ProfileInput) (*models.User, bool, error)
	BackfillEmptyNames(ctx context.Context, user *models.User, firstName, lastName string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderStore interface {
	CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type sessionIssuer interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type service struct {
	carts    cartAccessor
	users    identityService
	tx       txRunner
	orders   orderStore
	mailer   mail.Sender
	sessions sessionIssuer
	jwtCfg   config.JWTConfig
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger

	now        func() time.Time
	newOrderID func() uuid.UUID
}

// Deps wires the checkout collaborators.
type Deps struct {
	Carts    cartAccessor
	Users    identityService
	Tx       txRunner
	Orders   orderStore
	Mailer   mail.Sender
	Sessions sessionIssuer
	JWT      config.JWTConfig
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

// NewService constructs the checkout orchestrator.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Users == nil:
		return nil, fmt.Errorf("users service required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("order store required")
	case deps.Mailer == nil:
		return nil, fmt.Errorf("mail sender required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session issuer required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:      deps.Carts,
		users:      deps.Users,
		tx:         deps.Tx,
		orders:     deps.Orders,
		mailer:     deps.Mailer,
		sessions:   deps.Sessions,
		jwtCfg:     deps.JWT,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		now:        time.Now,
		newOrderID: uuid.New,
	}, nil
}

// Process runs checkout end to end: validate, resolve identity, notify,
// persist, clear. The cart is cleared no matter how identity resolution
// goes; the order and its items commit in a single transaction or not at
// all.
func (s *service) Process(ctx context.Context, sessionID string, userID uuid.UUID, input Input) (*Result, error) {
	current, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Empty() {
		s.metrics.IncFailure("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	if err := validateInput(userID != uuid.Nil, &input); err != nil {
		s.metrics.IncFailure("invalid_input")
		return nil, err
	}

	result := &Result{Redirect: "/"}
	orderID := s.newOrderID()

	user, err := s.resolveIdentity(ctx, userID, input, result)
	if err != nil {
		s.metrics.IncFailure("identity")
		s.clearCart(ctx, sessionID)
		return nil, err
	}

	email := input.Email
	if user != nil {
		email = user.Email
	}
	s.sendReceipt(ctx, email, orderID, result)

	if user != nil {
		if err := s.createOrder(ctx, current, user, orderID); err != nil {
			s.metrics.IncFailure("persistence")
			s.clearCart(ctx, sessionID)
			return nil, err
		}
		result.OrderID = &orderID
		result.Redirect = fmt.Sprintf("/order/%s/", orderID)
		result.Notices = append(result.Notices, MsgOrderCreated)
		s.metrics.IncOrderCreated(identityKind(userID))
	} else {
		s.metrics.IncFailure("no_identity")
	}

	s.clearCart(ctx, sessionID)
	return result, nil
}

func (s *service) resolveIdentity(ctx context.Context, userID uuid.UUID, input Input, result *Result) (*models.User, error) {
	var user *models.User

	switch {
	case userID != uuid.Nil:
		found, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		user = found

	case input.CreateProfile:
		found, created, err := s.users.GetOrCreateByEmail(ctx, users.ProfileInput{
			Email:    input.Email,
			Username: input.Username,
			Password: input.Password,
			Phone:    input.Phone,
		})
		if err != nil {
			return nil, err
		}
		user = found
		if created {
			s.sendConfirmation(ctx, user.Email)
		}
		if err := s.establishSession(ctx, user, result); err != nil {
			return nil, err
		}
		result.Notices = append(result.Notices,
			fmt.Sprintf("Successfully signed in as %s.", user.Username))

	default:
		return nil, nil
	}

	if err := s.users.BackfillEmptyNames(ctx, user, input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) establishSession(ctx context.Context, user *models.User, result *Result) error {
	jti := uuid.NewString()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		JTI:      jti,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, jti)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	result.AccessToken = token
	result.RefreshToken = refresh
	return nil
}

// sendReceipt notifies the customer before the order is persisted. A
// delivery failure is logged and never blocks the order.
func (s *service) sendReceipt(ctx context.Context, email string, orderID uuid.UUID, result *Result) {
	result.Notices = append(result.Notices,
		fmt.Sprintf("We've just sent a receipt email to %s", email))

	msg := mail.Message{
		To:      email,
		Subject: receiptSubject,
		Body:    fmt.Sprintf("%s Order reference: %s.", receiptBody, orderID),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String()})
		s.logg.Error(ctx, "checkout.receipt_email_failed", err)
	}
}

func (s *service) sendConfirmation(ctx context.Context, email string) {
	msg := mail.Message{
		To:      email,
		Subject: "Confirm your LapZone account",
		Body:    "Welcome to LapZone! Please confirm your email address to activate your account.",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logg.Error(ctx, "checkout.confirmation_email_failed", err)
	}
}

func (s *service) createOrder(ctx context.Context, current *cart.Cart, user *models.User, orderID uuid.UUID) error {
	order := &models.Order{
		ID:         orderID,
		UserID:     user.ID,
		TotalPrice: current.TotalPrice(),
	}
	for _, productID := range current.ProductIDs() {
		line, ok := current.Line(productID)
		if !ok {
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:  productID,
			Price:      line.Price,
			Quantity:   line.Quantity,
			TotalPrice: line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.CreateOrder(ctx, tx, order)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

func (s *service) clearCart(ctx context.Context, sessionID string) {
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
}

func validateInput(authenticated bool, input *Input) error {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if authenticated {
		return nil
	}

	fields := map[string]string{}
	if strings.TrimSpace(input.FirstName) == "" {
		fields["first_name"] = "required"
	}
	if strings.TrimSpace(input.LastName) == "" {
		fields["last_name"] = "required"
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		fields["email"] = "valid email required"
	}
	if strings.TrimSpace(input.Phone) == "" {
		fields["phone"] = "required"
	}
	if strings.TrimSpace(input.Address) == "" {
		fields["address"] = "required"
	}
	if input.CreateProfile {
		if strings.TrimSpace(input.Username) == "" {
			fields["username"] = "required to create a profile"
		}
		if len(input.Password) < 8 {
			fields["password"] = "at least 8 characters required"
		}
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout form is invalid").
			WithDetails(fields)
	}
	return nil
}

func identityKind(userID uuid.UUID) string {
	if userID != uuid.Nil {
		return "authenticated"
	}
	return "profile"
}
