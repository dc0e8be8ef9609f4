package service

import (
	"context"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type GroupService struct {
	groups   GroupStore
	users    UserStore
	messages MessageStore
	notifier Notifier
}

func NewGroupService(groups GroupStore, users UserStore, messages MessageStore, notifier Notifier) *GroupService {
	return &GroupService{
		groups:   groups,
		users:    users,
		messages: messages,
		notifier: notifier,
	}
}

// Create: создатель становится админом и всегда входит в участники.
func (s *GroupService) Create(ctx context.Context, adminID, name string, memberIDs []string, avatar string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyGroupName
	}
	if len(memberIDs) == 0 {
		return nil, domain.ErrEmptyGroup
	}

	members := dedupe(append([]string{adminID}, memberIDs...))
	for _, id := range members {
		if _, err := s.users.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	group := &domain.Group{
		Name:    name,
		AdminID: adminID,
		Members: members,
		Avatar:  avatar,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	for _, id := range group.Members {
		s.notifier.GroupSubscribe(id, group.ID)
	}
	for _, id := range group.MembersExcept(adminID) {
		s.notifier.GroupMemberAdded(id, group, adminID)
	}

	return group, nil
}

func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*domain.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(userID) {
		return nil, domain.ErrNotGroupMember
	}
	return group, nil
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	return s.groups.ListForUser(ctx, userID)
}

// Update переименовывает группу и/или меняет аватар; только админ.
func (s *GroupService) Update(ctx context.Context, actorID, groupID, name, avatar string) (*domain.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}

	if err := s.groups.UpdateMeta(ctx, groupID, strings.TrimSpace(name), avatar); err != nil {
		return nil, err
	}
	group, err = s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.notifier.GroupUpdated(group.MembersExcept(actorID), group)

	return group, nil
}

// AddMember: только админ; добавленный сразу подписывается на group scope.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID string) (*domain.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.groups.AddMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	group, err = s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.notifier.GroupSubscribe(userID, groupID)
	s.notifier.GroupMemberAdded(userID, group, actorID)

	return group, nil
}

// RemoveMember: только админ; админа удалить нельзя. Удалённый отписывается
// от group scope немедленно — следующее групповое сообщение его не достигнет.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID string) (*domain.Group, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if group.IsAdmin(userID) {
		return nil, domain.ErrCannotRemoveAdmin
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	group, err = s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.notifier.GroupUnsubscribe(userID, groupID)
	s.notifier.GroupMemberRemoved(userID, groupID, actorID)

	return group, nil
}

// Leave — любой участник, кроме админа: тот передаёт группу или удаляет её.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) error {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.IsAdmin(userID) {
		return domain.ErrAdminCannotLeave
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.notifier.GroupUnsubscribe(userID, groupID)
	s.notifier.GroupMemberLeft(group.MembersExcept(userID), groupID, userID)

	return nil
}

// Delete: только админ. Каскадно удаляет сообщения группы, уведомляет
// участников до удаления, затем убирает группу и её broadcast room.
func (s *GroupService) Delete(ctx context.Context, actorID, groupID string) error {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return domain.ErrNotAdmin
	}

	if _, err := s.messages.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}

	s.notifier.GroupDeleted(group.MembersExcept(actorID), groupID, actorID)

	if err := s.groups.Delete(ctx, groupID); err != nil {
		return err
	}
	s.notifier.GroupDropped(groupID)

	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
