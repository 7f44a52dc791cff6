package mailing

import (
	"context"
	"fmt"
	"strings"

	"github.com/lapzone/lapzone-backend/pkg/db"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
	"github.com/lapzone/lapzone-backend/pkg/mail"
)

// User-facing notices, shown verbatim by the storefront.
const (
	MsgSubscribed   = "You have successfully subscribed to our mailing."
	MsgUnsubscribed = "You have successfully unsubscribed from our mailing."

	welcomeSubject = "You have successfully subscribed to our mailing"
	welcomeBody    = "You will be noticed about all our changes."
)

// Service manages mailing-list subscriptions.
type Service interface {
	Subscribe(ctx context.Context, email string) (string, error)
	Unsubscribe(ctx context.Context, email string) (string, error)
}

type subscriberRepo interface {
	Create(ctx context.Context, subscriber *models.Subscriber) (*models.Subscriber, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

type service struct {
	repo   subscriberRepo
	mailer mail.Sender
	logg   *logger.Logger
}

// NewService constructs the mailing-list service.
func NewService(repo subscriberRepo, mailer mail.Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriber repository required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, mailer: mailer, logg: logg}, nil
}

// Subscribe registers the email and sends the welcome mail. A delivery
// failure is logged; the subscription stands either way.
func (s *service) Subscribe(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}

	subscriber, err := s.repo.Create(ctx, &models.Subscriber{Email: email})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "this email is already subscribed")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscriber")
	}

	msg := mail.Message{
		To:      subscriber.Email,
		Subject: welcomeSubject,
		Body:    welcomeBody,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logg.Error(ctx, "mailing.welcome_email_failed", err)
	}

	return MsgSubscribed, nil
}

func (s *service) Unsubscribe(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}

	affected, err := s.repo.DeleteByEmail(ctx, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscriber")
	}
	if affected == 0 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return MsgUnsubscribed, nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	return nil
}
