package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/thereayou/chatserver/internal/database"
	"github.com/thereayou/chatserver/internal/models"
	"github.com/thereayou/chatserver/internal/relay"
	"gorm.io/gorm"
)

// Publisher отправляет конверт сообщения в общий broadcast канал
type Publisher interface {
	Publish(ctx context.Context, env *relay.Envelope) error
}

type Service struct {
	db        *database.Database
	publisher Publisher
}

func NewService(db *database.Database, publisher Publisher) *Service {
	return &Service{db: db, publisher: publisher}
}

// SetPublisher разрывает цикл инициализации service -> hub -> relay -> service
func (s *Service) SetPublisher(publisher Publisher) {
	s.publisher = publisher
}

// RoomSummary — строка списка "мои комнаты"
type RoomSummary struct {
	RoomID      int64           `json:"roomId"`
	RoomName    string          `json:"roomName"`
	Kind        models.RoomKind `json:"kind"`
	UnreadCount int64           `json:"unreadCount"`
}

// Ingest сохраняет входящее сообщение и передаёт его в relay.
// Сообщение и read-статусы участников пишутся атомарно; публикация
// идёт только после коммита. Ошибка публикации возвращается вызывающему,
// само сообщение при этом уже сохранено.
func (s *Service) Ingest(ctx context.Context, roomID int64, senderEmail, content string) (*relay.Envelope, error) {
	room, err := s.db.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	sender, err := s.db.FindMemberByEmail(senderEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	message, err := s.db.AppendMessage(room.ID, sender.ID, content)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	env := &relay.Envelope{
		RoomID:      room.ID,
		SenderEmail: sender.Email,
		Content:     message.Content,
		SentAt:      message.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, env); err != nil {
		log.Printf("Failed to publish message %d to broadcast channel: %v", message.ID, err)
		return env, fmt.Errorf("publish message: %w", err)
	}

	return env, nil
}

// IsParticipant проверяет, состоит ли пользователь в комнате.
// Всегда ходит в базу: авторизация должна видеть актуальное членство.
func (s *Service) IsParticipant(email string, roomID int64) (bool, error) {
	if _, err := s.db.GetRoom(roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRoomNotFound
		}
		return false, err
	}

	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMemberNotFound
		}
		return false, err
	}

	_, err = s.db.FindParticipant(roomID, member.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// History возвращает все сообщения комнаты в порядке создания.
// Доступна только участникам.
func (s *Service) History(email string, roomID int64) ([]models.Message, error) {
	ok, err := s.IsParticipant(email, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	return s.db.ListMessages(roomID)
}

// MarkRead помечает все сообщения комнаты прочитанными для пользователя
func (s *Service) MarkRead(email string, roomID int64) error {
	ok, err := s.IsParticipant(email, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		return err
	}

	return s.db.MarkRoomRead(roomID, member.ID)
}

// MyRooms возвращает комнаты пользователя с количеством непрочитанных
func (s *Service) MyRooms(email string) ([]RoomSummary, error) {
	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	participants, err := s.db.GetMemberParticipants(member.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]RoomSummary, 0, len(participants))
	for _, p := range participants {
		count, err := s.db.UnreadCount(p.RoomID, member.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, RoomSummary{
			RoomID:      p.Room.ID,
			RoomName:    p.Room.Name,
			Kind:        p.Room.Kind,
			UnreadCount: count,
		})
	}

	return summaries, nil
}

// CreateGroupRoom создаёт групповую комнату, открывший становится участником
func (s *Service) CreateGroupRoom(email, name string) (*models.Room, error) {
	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	room := &models.Room{
		Name:      name,
		Kind:      models.RoomGroup,
		CreatedAt: time.Now(),
	}

	if err := s.db.CreateRoom(room); err != nil {
		return nil, err
	}

	if err := s.db.AddParticipant(room.ID, member.ID); err != nil {
		return nil, err
	}

	return room, nil
}

func (s *Service) ListGroupRooms() ([]models.Room, error) {
	return s.db.ListGroupRooms()
}

// JoinGroupRoom добавляет пользователя в групповую комнату.
// Повторный join уже участника - no-op.
func (s *Service) JoinGroupRoom(email string, roomID int64) error {
	room, err := s.db.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	if room.Kind != models.RoomGroup {
		return ErrNotGroupRoom
	}

	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	_, err = s.db.FindParticipant(roomID, member.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.AddParticipant(roomID, member.ID)
}

// LeaveGroupRoom убирает пользователя из групповой комнаты.
// Когда уходит последний участник, комната удаляется со всей историей.
func (s *Service) LeaveGroupRoom(email string, roomID int64) error {
	room, err := s.db.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	if room.Kind != models.RoomGroup {
		return ErrNotGroupRoom
	}

	member, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if _, err := s.db.FindParticipant(roomID, member.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}

	if err := s.db.RemoveParticipant(roomID, member.ID); err != nil {
		return err
	}

	if _, err := s.db.DeleteRoomIfEmpty(roomID); err != nil {
		return err
	}

	return nil
}

// GetOrCreatePrivateRoom находит или создаёт 1:1 комнату двух пользователей
func (s *Service) GetOrCreatePrivateRoom(email string, otherMemberID int64) (int64, error) {
	me, err := s.db.FindMemberByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}

	other, err := s.db.GetMember(otherMemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}

	if me.ID == other.ID {
		return 0, ErrSelfChat
	}

	room, err := s.db.FindPrivateRoom(me.ID, other.ID)
	if err == nil {
		return room.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	newRoom := &models.Room{
		Name:      me.Name + "-" + other.Name,
		Kind:      models.RoomDirect,
		CreatedAt: time.Now(),
	}

	if err := s.db.CreateRoom(newRoom); err != nil {
		return 0, err
	}

	if err := s.db.AddParticipant(newRoom.ID, me.ID); err != nil {
		return 0, err
	}

	if err := s.db.AddParticipant(newRoom.ID, other.ID); err != nil {
		return 0, err
	}

	return newRoom.ID, nil
}
