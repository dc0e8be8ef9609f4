package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func newGroupSvc(t *testing.T) (*GroupService, *fakeGroupStore, *fakeMessageStore, *fakeNotifier) {
	t.Helper()
	groups := newFakeGroupStore()
	users := newFakeUserStore("alice", "bob", "carol", "dave")
	msgs := newFakeMessageStore()
	notifier := newFakeNotifier()
	return NewGroupService(groups, users, msgs, notifier), groups, msgs, notifier
}

func TestCreateGroup(t *testing.T) {
	svc, _, _, notifier := newGroupSvc(t)
	ctx := context.Background()

	// создатель попадает в участники даже если его нет в списке
	group, err := svc.Create(ctx, "alice", "  team  ", []string{"bob", "bob", "carol"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.Name != "team" {
		t.Fatalf("name must be trimmed: %q", group.Name)
	}
	if !group.IsAdmin("alice") || !group.IsMember("alice") {
		t.Fatal("creator must be admin and member")
	}
	if len(group.Members) != 3 {
		t.Fatalf("duplicates must collapse: %v", group.Members)
	}
	if len(notifier.subscribed) != 3 {
		t.Fatalf("all members must subscribe to group scope: %v", notifier.subscribed)
	}
	if !notifier.has("groupMemberAdded") {
		t.Fatal("non-admin members must get groupMemberAdded")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _, _, _ := newGroupSvc(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alice", "   ", []string{"bob"}, ""); !errors.Is(err, domain.ErrEmptyGroupName) {
		t.Fatalf("expected ErrEmptyGroupName, got %v", err)
	}
	if _, err := svc.Create(ctx, "alice", "team", nil, ""); !errors.Is(err, domain.ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
	if _, err := svc.Create(ctx, "alice", "team", []string{"ghost"}, ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAddMemberAdminOnly(t *testing.T) {
	svc, _, _, notifier := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddMember(ctx, "bob", group.ID, "carol"); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	updated, err := svc.AddMember(ctx, "alice", group.ID, "carol")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if !updated.IsMember("carol") {
		t.Fatalf("carol must be a member: %v", updated.Members)
	}
	if got := notifier.subscribed["carol"]; len(got) == 0 || got[len(got)-1] != group.ID {
		t.Fatalf("carol must subscribe to group scope: %v", got)
	}

	if _, err := svc.AddMember(ctx, "alice", group.ID, "carol"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	svc, _, _, notifier := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob", "carol"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.RemoveMember(ctx, "bob", group.ID, "carol"); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	// админ неудаляем даже для самого себя
	if _, err := svc.RemoveMember(ctx, "alice", group.ID, "alice"); !errors.Is(err, domain.ErrCannotRemoveAdmin) {
		t.Fatalf("expected ErrCannotRemoveAdmin, got %v", err)
	}

	updated, err := svc.RemoveMember(ctx, "alice", group.ID, "bob")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if updated.IsMember("bob") {
		t.Fatalf("bob must be gone: %v", updated.Members)
	}
	if got := notifier.unsubscribed["bob"]; len(got) == 0 || got[len(got)-1] != group.ID {
		t.Fatalf("bob must be unsubscribed from group scope: %v", got)
	}
	if !notifier.has("groupMemberRemoved") {
		t.Fatal("groupMemberRemoved must be emitted")
	}
}

func TestLeaveGroup(t *testing.T) {
	svc, groups, _, notifier := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Leave(ctx, "alice", group.ID); !errors.Is(err, domain.ErrAdminCannotLeave) {
		t.Fatalf("expected ErrAdminCannotLeave, got %v", err)
	}

	if err := svc.Leave(ctx, "bob", group.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	g, _ := groups.Get(ctx, group.ID)
	if g.IsMember("bob") {
		t.Fatal("bob must be removed")
	}
	if !notifier.has("groupMemberLeft") {
		t.Fatal("groupMemberLeft must be emitted")
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	svc, groups, msgs, notifier := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m := &domain.Message{SenderID: "bob", GroupID: &group.ID, Text: "hi"}
	if err := msgs.Save(ctx, m); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Delete(ctx, "bob", group.ID); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	if err := svc.Delete(ctx, "alice", group.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := groups.Get(ctx, group.ID); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatal("group must be gone")
	}
	if _, err := msgs.Get(ctx, m.ID); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Fatal("group messages must cascade")
	}
	if !notifier.has("groupDeleted") || !notifier.has("groupDropped") {
		t.Fatal("groupDeleted and groupDropped must be emitted")
	}
}

func TestUpdateGroup(t *testing.T) {
	svc, _, _, notifier := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, "bob", group.ID, "new", ""); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	updated, err := svc.Update(ctx, "alice", group.ID, "renamed", "pic.png")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" || updated.Avatar != "pic.png" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !notifier.has("groupUpdated") {
		t.Fatal("groupUpdated must be emitted")
	}
}

func TestGetGroupMemberOnly(t *testing.T) {
	svc, _, _, _ := newGroupSvc(t)
	ctx := context.Background()

	group, err := svc.Create(ctx, "alice", "team", []string{"bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, "carol", group.ID); !errors.Is(err, domain.ErrNotGroupMember) {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}
	if _, err := svc.Get(ctx, "bob", group.ID); err != nil {
		t.Fatalf("member get: %v", err)
	}
}
