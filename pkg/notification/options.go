package notification

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// RegistrationInviteData is the template data of a RegistrationInvite.
type RegistrationInviteData struct {
	FullName string
	URL      string
}

// WithRegistrationInviteTemplate registers the registration invitation template
func WithRegistrationInviteTemplate() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(RegistrationInvite, NoticeTemplate{
			Subject: "Complete your registration",
			Text:    "You have been registered in the Third Party TIU Eligibility System, please follow the link to complete your registration: {{.URL}}",
		})
	}
}

// WithDefaultTemplates registers all default notification templates
func WithDefaultTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithRegistrationInviteTemplate(),
		}

		for _, opt := range options {
			if err := opt(nm); err != nil {
				return err
			}
		}

		return nil
	}
}

// NewNotifier picks the email notifier when SMTP is configured and the log
// notifier otherwise.
func NewNotifier(config SMTPConfig) (Notifier, error) {
	if config.Host == "" {
		return NewLogNotifier(nil), nil
	}
	return NewEmailNotifier(config)
}
