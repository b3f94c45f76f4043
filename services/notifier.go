package services

import (
	"fmt"

	"github.com/yaoyorozu/sanpai/config"
	"github.com/yaoyorozu/sanpai/models"
	"github.com/yaoyorozu/sanpai/utils"
)

// Notifier delivers reward and streak notifications. Calls are
// fire-and-forget: failures are logged and never propagated to the flow.
type Notifier interface {
	SendRewardNotification(user *models.User, bundle models.RewardBundle)
	SendStreakNotification(user *models.User, streak int)
}

// LogNotifier only writes to the application log. Default when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) SendRewardNotification(user *models.User, bundle models.RewardBundle) {
	utils.Sugar.Infow("reward notification",
		"user", user.Username,
		"delta", bundle.CulturalCapitalDelta,
		"rewards", len(bundle.Rewards),
	)
}

func (LogNotifier) SendStreakNotification(user *models.User, streak int) {
	utils.Sugar.Infow("streak milestone notification", "user", user.Username, "streak", streak)
}

// MailNotifier sends notifications by email, asynchronously.
type MailNotifier struct{}

func (MailNotifier) SendRewardNotification(user *models.User, bundle models.RewardBundle) {
	if user.Email == "" {
		return
	}
	subject := "Your shrine visit rewards"
	body := fmt.Sprintf("You earned %d cultural capital from your latest visit. Keep the streak going!", bundle.CulturalCapitalDelta)
	go func() {
		if err := utils.SendMail(user.Email, subject, body); err != nil {
			utils.Sugar.Warnf("reward mail to %s failed: %v", user.Email, err)
		}
	}()
}

func (MailNotifier) SendStreakNotification(user *models.User, streak int) {
	if user.Email == "" {
		return
	}
	subject := fmt.Sprintf("%d-day visit streak!", streak)
	body := fmt.Sprintf("Congratulations — you have visited shrines %d days in a row.", streak)
	go func() {
		if err := utils.SendMail(user.Email, subject, body); err != nil {
			utils.Sugar.Warnf("streak mail to %s failed: %v", user.Email, err)
		}
	}()
}

// NewNotifier picks the mail notifier when SMTP is configured, else log-only.
func NewNotifier(cfg config.AppConfig) Notifier {
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		return MailNotifier{}
	}
	return LogNotifier{}
}
