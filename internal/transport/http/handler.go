package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/service"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	messageSvc    *service.MessageService
	annotationSvc *service.AnnotationService
	groupSvc      *service.GroupService
	convSvc       *service.ConversationService
}

func NewHandler(messages *service.MessageService, annotations *service.AnnotationService, groups *service.GroupService, convs *service.ConversationService) *Handler {
	return &Handler{
		messageSvc:    messages,
		annotationSvc: annotations,
		groupSvc:      groups,
		convSvc:       convs,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr переводит доменные ошибки в HTTP-статусы; всё неожиданное — 500 с логом.
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, domain.ErrMessageNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "message not found"})
	case errors.Is(err, domain.ErrGroupNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "group not found"})
	case errors.Is(err, domain.ErrConversationNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
	case errors.Is(err, domain.ErrReactionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "reaction not found"})
	case errors.Is(err, domain.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "message has no content"})
	case errors.Is(err, domain.ErrSelfMessage):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "cannot message yourself"})
	case errors.Is(err, domain.ErrMissingEmoji):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "emoji required"})
	case errors.Is(err, domain.ErrEmptyGroupName):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "group name required"})
	case errors.Is(err, domain.ErrEmptyGroup):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "group needs at least one member"})
	case errors.Is(err, postgres.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
	case errors.Is(err, domain.ErrDuplicateReaction):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "reaction already set"})
	case errors.Is(err, domain.ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "already a member"})
	case errors.Is(err, domain.ErrNotSender):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "only the sender can delete this message"})
	case errors.Is(err, domain.ErrDeleteWindowExpired):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "delete window expired"})
	case errors.Is(err, domain.ErrNotAdmin):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin only"})
	case errors.Is(err, domain.ErrNotGroupMember):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not a group member"})
	case errors.Is(err, domain.ErrCannotRemoveAdmin):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin cannot be removed"})
	case errors.Is(err, domain.ErrAdminCannotLeave):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin cannot leave own group"})
	default:
		slog.Error(op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func pageParams(r *http.Request) (string, int) {
	after := r.URL.Query().Get("after")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	return after, limit
}

// GET /api/messages/users
func (h *Handler) GetSidebarUsers(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	users, err := h.messageSvc.Sidebar(r.Context(), userID)
	if err != nil {
		writeErr(w, "handler.GetSidebarUsers:", err)
		return
	}
	resp := UsersResponse{Items: make([]UserItem, 0, len(users))}
	for _, u := range users {
		resp.Items = append(resp.Items, newUserItem(u))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/messages/starred
func (h *Handler) GetStarredMessages(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	msgs, err := h.messageSvc.Starred(r.Context(), userID)
	if err != nil {
		writeErr(w, "handler.GetStarredMessages:", err)
		return
	}
	resp := MessagesResponse{Items: make([]MessageItem, 0, len(msgs))}
	for _, m := range msgs {
		resp.Items = append(resp.Items, newMessageItem(m, userID))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/messages/{id}?after=&limit= — история диалога с пользователем {id}
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	otherID := chi.URLParam(r, "id")
	after, limit := pageParams(r)

	msgs, next, err := h.messageSvc.History(r.Context(), userID, otherID, after, limit)
	if err != nil {
		writeErr(w, "handler.GetMessages:", err)
		return
	}
	resp := MessagesResponse{Items: make([]MessageItem, 0, len(msgs)), NextCursor: next}
	for _, m := range msgs {
		resp.Items = append(resp.Items, newMessageItem(m, userID))
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/messages/send/{id}
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	receiverID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.messageSvc.SendDirect(r.Context(), userID, receiverID, service.SendInput{
		Text:          req.Text,
		Image:         req.Image,
		PDF:           req.PDF,
		Audio:         req.Audio,
		AudioDuration: req.AudioDuration,
		ReplyTo:       req.ReplyTo,
	})
	if err != nil {
		writeErr(w, "handler.SendMessage:", err)
		return
	}

	writeJSON(w, http.StatusCreated, newMessageItem(*msg, userID))
}

// PUT /api/messages/mark-read/{senderId}
func (h *Handler) MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	senderID := chi.URLParam(r, "senderId")

	n, err := h.messageSvc.MarkRead(r.Context(), userID, senderID)
	if err != nil {
		writeErr(w, "handler.MarkMessagesRead:", err)
		return
	}

	writeJSON(w, http.StatusOK, MarkReadResponse{Updated: n})
}

// PUT /api/messages/star/{id}
func (h *Handler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	messageID := chi.URLParam(r, "id")

	starred, err := h.annotationSvc.ToggleStar(r.Context(), userID, messageID)
	if err != nil {
		writeErr(w, "handler.ToggleStar:", err)
		return
	}

	writeJSON(w, http.StatusOK, StarResponse{MessageID: messageID, IsStarred: starred})
}

// DELETE /api/messages/{id} — удаление у всех, доступно отправителю в окне
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	messageID := chi.URLParam(r, "id")

	msg, err := h.annotationSvc.DeleteForEveryone(r.Context(), userID, messageID)
	if err != nil {
		writeErr(w, "handler.DeleteMessage:", err)
		return
	}

	writeJSON(w, http.StatusOK, newMessageItem(*msg, userID))
}

// GET /api/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	convs, err := h.convSvc.ListForUser(r.Context(), userID)
	if err != nil {
		writeErr(w, "handler.ListConversations:", err)
		return
	}
	resp := ConversationsResponse{Items: make([]ConversationItem, 0, len(convs))}
	for _, c := range convs {
		resp.Items = append(resp.Items, ConversationItem{
			ID:            c.ID,
			ParticipantA:  c.ParticipantA,
			ParticipantB:  c.ParticipantB,
			LastMessageID: c.LastMessageID,
			LastMessageAt: c.LastMessageAt,
			CreatedAt:     c.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	group, err := h.groupSvc.Create(r.Context(), userID, req.Name, req.Members, req.Avatar)
	if err != nil {
		writeErr(w, "handler.CreateGroup:", err)
		return
	}

	writeJSON(w, http.StatusCreated, newGroupItem(*group))
}

// GET /api/groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	groups, err := h.groupSvc.ListForUser(r.Context(), userID)
	if err != nil {
		writeErr(w, "handler.ListGroups:", err)
		return
	}
	resp := GroupsResponse{Items: make([]GroupItem, 0, len(groups))}
	for _, g := range groups {
		resp.Items = append(resp.Items, newGroupItem(g))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/groups/{id}
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	group, err := h.groupSvc.Get(r.Context(), userID, groupID)
	if err != nil {
		writeErr(w, "handler.GetGroup:", err)
		return
	}

	writeJSON(w, http.StatusOK, newGroupItem(*group))
}

// PUT /api/groups/{id}
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	group, err := h.groupSvc.Update(r.Context(), userID, groupID, req.Name, req.Avatar)
	if err != nil {
		writeErr(w, "handler.UpdateGroup:", err)
		return
	}

	writeJSON(w, http.StatusOK, newGroupItem(*group))
}

// DELETE /api/groups/{id}
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	if err := h.groupSvc.Delete(r.Context(), userID, groupID); err != nil {
		writeErr(w, "handler.DeleteGroup:", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /api/groups/{id}/members
func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId required"})
		return
	}

	group, err := h.groupSvc.AddMember(r.Context(), userID, groupID, req.UserID)
	if err != nil {
		writeErr(w, "handler.AddGroupMember:", err)
		return
	}

	writeJSON(w, http.StatusOK, newGroupItem(*group))
}

// DELETE /api/groups/{id}/members/{userId}
func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "userId")

	group, err := h.groupSvc.RemoveMember(r.Context(), userID, groupID, memberID)
	if err != nil {
		writeErr(w, "handler.RemoveGroupMember:", err)
		return
	}

	writeJSON(w, http.StatusOK, newGroupItem(*group))
}

// POST /api/groups/{id}/leave
func (h *Handler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	if err := h.groupSvc.Leave(r.Context(), userID, groupID); err != nil {
		writeErr(w, "handler.LeaveGroup:", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// GET /api/groups/{id}/messages?after=&limit=
func (h *Handler) GetGroupMessages(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")
	after, limit := pageParams(r)

	msgs, next, err := h.messageSvc.GroupHistory(r.Context(), userID, groupID, after, limit)
	if err != nil {
		writeErr(w, "handler.GetGroupMessages:", err)
		return
	}
	resp := MessagesResponse{Items: make([]MessageItem, 0, len(msgs)), NextCursor: next}
	for _, m := range msgs {
		resp.Items = append(resp.Items, newMessageItem(m, userID))
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/groups/{id}/send
func (h *Handler) SendGroupMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	groupID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.messageSvc.SendGroup(r.Context(), userID, groupID, service.SendInput{
		Text:          req.Text,
		Image:         req.Image,
		PDF:           req.PDF,
		Audio:         req.Audio,
		AudioDuration: req.AudioDuration,
		ReplyTo:       req.ReplyTo,
	})
	if err != nil {
		writeErr(w, "handler.SendGroupMessage:", err)
		return
	}

	writeJSON(w, http.StatusCreated, newMessageItem(*msg, userID))
}
