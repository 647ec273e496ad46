package enums

import "fmt"

// NotificationType names the in-app notification categories.
type NotificationType string

const (
	NotificationTypeItemReserved  NotificationType = "item_reserved"
	NotificationTypeItemPurchased NotificationType = "item_purchased"
	NotificationTypeShareReceived NotificationType = "share_received"
	NotificationTypeGroupAdded    NotificationType = "group_added"
	NotificationTypeGroupRemoved  NotificationType = "group_removed"
	NotificationTypeCollaborator  NotificationType = "collaborator_added"
	NotificationTypeSystem        NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeItemReserved,
	NotificationTypeItemPurchased,
	NotificationTypeShareReceived,
	NotificationTypeGroupAdded,
	NotificationTypeGroupRemoved,
	NotificationTypeCollaborator,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
