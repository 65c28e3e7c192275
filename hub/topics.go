package hub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yeremiapane/restaurant-ordering/models"
)

const (
	TopicOrders       = "orders"
	TopicAdminStats   = "admin/stats"
	TopicReservations = "reservations"

	orderStatusPrefix        = "order-status/"
	reservationUpdatesPrefix = "reservation-updates/"
)

func OrderStatusTopic(userID uint) string {
	return fmt.Sprintf("%s%d", orderStatusPrefix, userID)
}

func ReservationUpdatesTopic(userID uint) string {
	return fmt.Sprintf("%s%d", reservationUpdatesPrefix, userID)
}

// userTopicOwner extracts the user id from a per-user topic.
func userTopicOwner(topic string) (uint, bool) {
	for _, prefix := range []string{orderStatusPrefix, reservationUpdatesPrefix} {
		if rest, ok := strings.CutPrefix(topic, prefix); ok {
			id, err := strconv.ParseUint(rest, 10, 64)
			if err != nil || id == 0 {
				return 0, false
			}
			return uint(id), true
		}
	}
	return 0, false
}

func IsKnownTopic(topic string) bool {
	switch topic {
	case TopicOrders, TopicAdminStats, TopicReservations:
		return true
	}
	_, ok := userTopicOwner(topic)
	return ok
}

// CanSubscribe lets admins watch every topic and other users only their own
// per-user topics.
func CanSubscribe(p models.Principal, topic string) bool {
	if !IsKnownTopic(topic) {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	owner, ok := userTopicOwner(topic)
	return ok && owner == p.ID
}

// DefaultTopics is used when a subscriber does not name any topic.
func DefaultTopics(p models.Principal) []string {
	if p.IsAdmin() {
		return []string{TopicOrders, TopicAdminStats}
	}
	return []string{OrderStatusTopic(p.ID), ReservationUpdatesTopic(p.ID)}
}

// topicKind drops the user id so metric labels stay bounded.
func topicKind(topic string) string {
	if i := strings.IndexByte(topic, '/'); i > 0 {
		if _, ok := userTopicOwner(topic); ok {
			return topic[:i]
		}
	}
	return topic
}
