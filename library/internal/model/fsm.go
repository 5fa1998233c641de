package model

import (
	"fmt"
	"time"

	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/pkg/mailer"
)

// MaxActiveTransactions caps the pending, approved and picked-up books per user.
const MaxActiveTransactions = 5

type Action string

const (
	ActionRequest Action = "request"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionRevoke  Action = "revoke"
	ActionPickup  Action = "pickup"
	ActionReturn  Action = "return"
)

// Role is the relation the actor must have to the book.
type Role int

const (
	RoleNonOwner Role = iota
	RoleOwner
	RoleRequester
)

// Party is who receives the notification of a transition.
type Party int

const (
	PartyOwner Party = iota
	PartyRequester
	PartyBorrower
)

const (
	NotifyRequestReceived  = "borrow_request_received"
	NotifyRequestApproved  = "borrow_request_approved"
	NotifyRequestRejected  = "borrow_request_rejected"
	NotifyRequestCancelled = "borrow_request_cancelled"
	NotifyApprovalRevoked  = "approval_revoked_by_owner_to_requester"
	NotifyBookPickedUp     = "book_picked_up"
	NotifyGiveawayDone     = "giveaway_completed"
	NotifyBookReturned     = "book_marked_returned"
)

type Transition struct {
	Action Action
	From   []Status
	Actor  Role
	// Limited transitions are checked against MaxActiveTransactions.
	Limited   bool
	Recipient Party
	Email     mailer.Kind

	apply   func(b *Book, actorID string, now time.Time)
	notify  func(b Book) string
	message func(actorName string, b Book) string
	counter func(b Book) string
}

var transitions = map[Action]Transition{
	ActionRequest: {
		Action:    ActionRequest,
		From:      []Status{StatusNone, StatusReturned, StatusRejected, StatusCancelled},
		Actor:     RoleNonOwner,
		Limited:   true,
		Recipient: PartyOwner,
		Email:     mailer.KindBookRequest,
		apply: func(b *Book, actorID string, now time.Time) {
			b.BorrowRequestStatus = StatusPending
			b.RequestedByUserID = &actorID
			b.RequestedTimestamp = &now
			b.DecisionTimestamp = nil
		},
		notify: constant(NotifyRequestReceived),
		message: func(actorName string, b Book) string {
			return fmt.Sprintf("%s has requested to borrow '%s'.", actorName, b.Title)
		},
	},
	ActionApprove: {
		Action:    ActionApprove,
		From:      []Status{StatusPending},
		Actor:     RoleOwner,
		Recipient: PartyRequester,
		Email:     mailer.KindRequestApproved,
		apply: func(b *Book, _ string, now time.Time) {
			b.BorrowRequestStatus = StatusApproved
			b.DecisionTimestamp = &now
		},
		notify: constant(NotifyRequestApproved),
		message: func(actorName string, b Book) string {
			return fmt.Sprintf("%s has approved your request for '%s'. Please coordinate pickup.", actorName, b.Title)
		},
	},
	ActionReject: {
		Action:    ActionReject,
		From:      []Status{StatusPending},
		Actor:     RoleOwner,
		Recipient: PartyRequester,
		Email:     mailer.KindRequestRejected,
		apply: func(b *Book, _ string, now time.Time) {
			b.BorrowRequestStatus = StatusRejected
			b.DecisionTimestamp = &now
			b.RequestedByUserID = nil
			b.RequestedTimestamp = nil
		},
		notify: constant(NotifyRequestRejected),
		message: func(_ string, b Book) string {
			return fmt.Sprintf("Your request for '%s' was not approved at this time.", b.Title)
		},
	},
	ActionCancel: {
		Action:    ActionCancel,
		From:      []Status{StatusPending, StatusApproved},
		Actor:     RoleRequester,
		Recipient: PartyOwner,
		apply: func(b *Book, _ string, now time.Time) {
			b.BorrowRequestStatus = StatusCancelled
			b.DecisionTimestamp = &now
			b.RequestedByUserID = nil
			b.RequestedTimestamp = nil
		},
		notify: constant(NotifyRequestCancelled),
		message: func(actorName string, b Book) string {
			return fmt.Sprintf("%s has cancelled their request for '%s'.", actorName, b.Title)
		},
	},
	ActionRevoke: {
		Action:    ActionRevoke,
		From:      []Status{StatusApproved},
		Actor:     RoleOwner,
		Recipient: PartyRequester,
		apply: func(b *Book, _ string, _ time.Time) {
			b.BorrowRequestStatus = StatusCancelled
			b.RequestedByUserID = nil
			b.RequestedTimestamp = nil
			b.DecisionTimestamp = nil
			b.PickupTimestamp = nil
		},
		notify: constant(NotifyApprovalRevoked),
		message: func(_ string, b Book) string {
			return fmt.Sprintf("The owner has revoked their approval for '%s'.", b.Title)
		},
	},
	ActionPickup: {
		Action:    ActionPickup,
		From:      []Status{StatusApproved},
		Actor:     RoleRequester,
		Recipient: PartyOwner,
		apply: func(b *Book, actorID string, now time.Time) {
			b.BorrowRequestStatus = StatusPickupConfirmed
			if b.IsGiveaway {
				b.BorrowRequestStatus = StatusGiveawayCompleted
			}
			b.BorrowedByUserID = &actorID
			b.RequestedByUserID = nil
			b.IsAvailable = false
			b.PickupTimestamp = &now
		},
		notify: func(b Book) string {
			if b.IsGiveaway {
				return NotifyGiveawayDone
			}
			return NotifyBookPickedUp
		},
		message: func(actorName string, b Book) string {
			if b.IsGiveaway {
				return fmt.Sprintf("%s has picked up your giveaway '%s'.", actorName, b.Title)
			}
			return fmt.Sprintf("%s has picked up '%s'.", actorName, b.Title)
		},
		counter: func(b Book) string {
			if b.IsGiveaway {
				return CounterGiveaways
			}
			return ""
		},
	},
	ActionReturn: {
		Action:    ActionReturn,
		From:      []Status{StatusPickupConfirmed},
		Actor:     RoleOwner,
		Recipient: PartyBorrower,
		Email:     mailer.KindBookReturned,
		apply: func(b *Book, _ string, now time.Time) {
			b.BorrowRequestStatus = StatusReturned
			b.IsAvailable = true
			b.ReturnedTimestamp = &now
			b.BorrowedByUserID = nil
			b.RequestedByUserID = nil
			b.RequestedTimestamp = nil
			b.DecisionTimestamp = nil
			b.PickupTimestamp = nil
		},
		notify: constant(NotifyBookReturned),
		message: func(_ string, b Book) string {
			return fmt.Sprintf("'%s' has been marked as returned by the owner.", b.Title)
		},
		counter: constant(CounterBooksBorrowed),
	},
}

func constant(s string) func(Book) string {
	return func(Book) string { return s }
}

// Lookup returns the transition registered for the action.
func Lookup(a Action) (Transition, bool) {
	t, ok := transitions[a]
	return t, ok
}

func (t Transition) allowedFrom(s Status) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}
	return false
}

func (t Transition) authorized(b Book, actorID string) bool {
	switch t.Actor {
	case RoleOwner:
		return b.OwnerID == actorID
	case RoleRequester:
		return b.requester() != "" && b.requester() == actorID
	default:
		return b.OwnerID != actorID
	}
}

// Apply checks the transition against b and returns the resulting book.
// The state is checked before the actor, so an out-of-order action on
// someone else's book reports a conflict.
func (t Transition) Apply(b Book, actorID string, now time.Time) (Book, error) {
	if !t.allowedFrom(b.BorrowRequestStatus) {
		return b, errs.ErrConflict
	}
	if !t.authorized(b, actorID) {
		return b, errs.ErrUnauthorized
	}
	if t.Action == ActionRequest && (b.IsPausedByOwner || b.IsDeactivatedByAdmin) {
		return b, errs.ErrConflict
	}
	next := b
	t.apply(&next, actorID, now)
	return next, nil
}

// RecipientOf resolves the notified user from the book as it was before the
// transition.
func (t Transition) RecipientOf(prev Book) string {
	switch t.Recipient {
	case PartyRequester:
		return prev.requester()
	case PartyBorrower:
		return prev.borrower()
	default:
		return prev.OwnerID
	}
}

func (t Transition) NotificationType(next Book) string {
	return t.notify(next)
}

func (t Transition) Message(actorName string, next Book) string {
	return t.message(actorName, next)
}

// Counter names the KPI counter bumped by the transition, or "".
func (t Transition) Counter(next Book) string {
	if t.counter == nil {
		return ""
	}
	return t.counter(next)
}
