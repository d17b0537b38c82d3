package service

import (
	"context"
	"strings"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, m models.Message) (models.Message, error)
}

// MessageService handles point-to-point chat.
type MessageService struct {
	deps    EngineDeps
	repo    messageRepository
	persist persister
}

// NewMessageService constructs the service.
func NewMessageService(deps EngineDeps, repo messageRepository) *MessageService {
	deps = deps.withDefaults()
	return &MessageService{deps: deps, repo: repo, persist: deps.persister()}
}

// Send appends a message from the actor to the receiver. Messages derive no
// notifications and a successful send records no feedback.
func (s *MessageService) Send(ctx context.Context, actor *models.User, req dto.SendMessageRequest) (*models.Message, models.Outcome, error) {
	const failure = "Failed to send message"
	if err := requireActor(actor); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.deps.validate(req); err != nil {
		return nil, models.Outcome{}, s.deps.reject(failure, err)
	}
	if req.ReceiverID == actor.ID {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself"))
	}
	if _, ok := s.deps.Store.FindUser(req.ReceiverID); !ok {
		return nil, models.Outcome{}, s.deps.reject(failure, appErrors.Clone(appErrors.ErrNotFound, "receiver not found"))
	}

	msg := models.Message{
		ID:         s.deps.IDs.Next("M"),
		SenderID:   actor.ID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Timestamp:  s.deps.IDs.Now(),
	}
	s.deps.Store.AddMessage(msg)

	persistErr := s.persist.write(ctx, repository.CollectionMessages, "create", func(ctx context.Context) error {
		_, err := s.repo.Create(ctx, msg)
		return err
	})
	outcome := models.Outcome{Persisted: persistErr == nil}
	if persistErr != nil {
		outcome.Feedback = s.deps.Feedback.Error(failure)
	}
	return &msg, outcome, nil
}

// Conversation returns the messages between the actor and otherID in
// insertion order.
func (s *MessageService) Conversation(actor *models.User, otherID string) ([]models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	out := []models.Message{}
	for _, m := range s.deps.Store.Messages() {
		if m.Between(actor.ID, otherID) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Contacts lists every other user whose name, id or initials contain query.
func (s *MessageService) Contacts(actor *models.User, query string) ([]models.PublicUser, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	out := []models.PublicUser{}
	for _, u := range s.deps.Store.Users() {
		if u.ID == actor.ID {
			continue
		}
		if query == "" || containsFold(u.Name, query) || containsFold(u.ID, query) || containsFold(u.Initials, query) {
			out = append(out, u.Public())
		}
	}
	return out, nil
}
