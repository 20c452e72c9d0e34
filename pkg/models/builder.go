package models

type NotificationBuilder struct {
	notification *Notification
}

func NewNotificationBuilder() *NotificationBuilder {
	return &NotificationBuilder{
		notification: &Notification{
			Priority: PriorityDefault,
		},
	}
}

func (b *NotificationBuilder) WithTopic(topic string) *NotificationBuilder {
	b.notification.Topic = topic
	return b
}

func (b *NotificationBuilder) WithTitle(title string) *NotificationBuilder {
	b.notification.Title = title
	return b
}

func (b *NotificationBuilder) WithMessage(message string) *NotificationBuilder {
	b.notification.Message = message
	return b
}

func (b *NotificationBuilder) WithPriority(priority Priority) *NotificationBuilder {
	b.notification.Priority = priority
	return b
}

func (b *NotificationBuilder) WithTag(tag string) *NotificationBuilder {
	b.notification.AddTag(tag)
	return b
}

func (b *NotificationBuilder) WithViewAction(label, url string) *NotificationBuilder {
	b.notification.Actions = append(b.notification.Actions, Action{
		Action: ActionView,
		Label:  label,
		URL:    url,
	})
	return b
}

func (b *NotificationBuilder) Build() *Notification {
	if b.notification.Priority == "" {
		b.notification.Priority = PriorityDefault
	}
	return b.notification
}
