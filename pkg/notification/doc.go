// Package notification renders and delivers outbound messages.
//
// A NotificationManager owns a set of text templates keyed by NoticeType and a
// single Notifier. EmailNotifier delivers over SMTP. Without an SMTP host
// NewNotifier falls back to LogNotifier, which only logs the message.
//
//	notifier, err := notification.NewNotifier(smtpConfig)
//	nm, err := notification.NewNotificationManager(notifier, notification.WithDefaultTemplates())
//
//	err = nm.Send(ctx, notification.RegistrationInvite, "jane@x.com",
//		notification.RegistrationInviteData{URL: "https://idm.example.com/register/abc"})
package notification
