package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrGroupNotFound        = errors.New("group not found")

	ErrEmptyMessage  = errors.New("message has no content")
	ErrSelfMessage   = errors.New("cannot send a message to yourself")
	ErrMissingEmoji  = errors.New("emoji is required")
	ErrEmptyGroup    = errors.New("group needs at least one member")
	ErrEmptyGroupName = errors.New("group name is required")

	ErrDuplicateReaction = errors.New("reaction already exists")
	ErrReactionNotFound  = errors.New("no such reaction")

	ErrNotSender           = errors.New("only the sender can delete the message")
	ErrDeleteWindowExpired = errors.New("delete window expired")

	ErrNotAdmin          = errors.New("only the group admin can do this")
	ErrNotGroupMember    = errors.New("user is not a group member")
	ErrAlreadyMember     = errors.New("user is already a group member")
	ErrCannotRemoveAdmin = errors.New("admin cannot be removed from the group")
	ErrAdminCannotLeave  = errors.New("admin cannot leave the group, transfer or delete instead")
)
