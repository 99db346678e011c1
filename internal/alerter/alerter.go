package alerter

import (
	"log"
	"strings"
	"time"

	"github.com/mattmezza/wwalert/internal/config"
	"github.com/mattmezza/wwalert/internal/notifier"
	"github.com/mattmezza/wwalert/internal/result"
	"github.com/mattmezza/wwalert/internal/wechatwork"
)

const (
	recipientSeparator  = "|"
	failureSeparator    = "; "
	clientNotConfigured = "client not configured"
)

// Alerter pages developers on WeChat Work. Direct recipients are tried
// first; bot keys are only used when no recipients are configured.
type Alerter struct {
	recipients []string
	botKeys    []string
	agentID    string
	template   string
	hostname   string
	sender     wechatwork.Sender
	now        func() time.Time
}

func NewAlerter(cfg *config.Config, sender wechatwork.Sender) *Alerter {
	// A nil *wechatwork.Client wrapped in the interface is still no client.
	if c, ok := sender.(*wechatwork.Client); ok && c == nil {
		sender = nil
	}
	return &Alerter{
		recipients: cfg.Developers.WechatWorkIDs,
		botKeys:    cfg.Developers.BotKeys,
		agentID:    cfg.WechatWork.AgentID,
		template:   cfg.Templates.Alert,
		hostname:   cfg.EffectiveHostname,
		sender:     sender,
		now:        time.Now,
	}
}

// Alert delivers message and reports the outcome. It never panics on
// delivery problems; every failure ends up in the returned Result.
func (a *Alerter) Alert(message string) result.Result {
	if len(a.recipients) > 0 {
		return a.sendMessage(message, strings.Join(a.recipients, recipientSeparator))
	}
	if len(a.botKeys) == 0 {
		return result.Succeed()
	}

	var errs []string
	if a.sender == nil {
		for _, key := range a.botKeys {
			errs = append(errs, a.fail(botTarget(key), clientNotConfigured).Message)
		}
		return result.Failed(strings.Join(errs, failureSeparator))
	}

	// Every bot gets the same rendered text.
	content, err := a.render(message)
	if err != nil {
		return a.fail("WeChat Work bots "+strings.Join(a.botKeys, ", "), err.Error())
	}
	for _, key := range a.botKeys {
		res := a.sendBotMessage(content, key)
		if !res.OK {
			errs = append(errs, res.Message)
		}
	}
	if len(errs) == 0 {
		return result.Succeed()
	}
	return result.Failed(strings.Join(errs, failureSeparator))
}

func (a *Alerter) sendMessage(message, toUser string) result.Result {
	target := "WeChat Work " + toUser
	if a.sender == nil {
		return a.fail(target, clientNotConfigured)
	}
	if a.agentID == "" {
		return a.fail(target, "agentId (wechat_work.agent_id) not configured")
	}
	content, err := a.render(message)
	if err != nil {
		return a.fail(target, err.Error())
	}

	resp, err := a.sender.SendMessage(a.agentID, wechatwork.NewTextMessage(a.agentID, toUser, content))
	return a.outcome(target, resp, err)
}

func (a *Alerter) sendBotMessage(content, key string) result.Result {
	resp, err := a.sender.SendWebhook(key, wechatwork.NewTextWebhook(content))
	return a.outcome(botTarget(key), resp, err)
}

func botTarget(key string) string {
	return "WeChat Work bot " + key
}

func (a *Alerter) outcome(target string, resp *wechatwork.Response, err error) result.Result {
	if err != nil {
		return a.fail(target, err.Error())
	}
	if !resp.IsOK() {
		return a.fail(target, resp.ErrorMessage())
	}
	log.Printf("Alert sent to %s", target)
	return result.Succeed()
}

func (a *Alerter) render(message string) (string, error) {
	if a.template == "" {
		return message, nil
	}
	return notifier.RenderTemplate("alert", a.template, notifier.NotificationData{
		Message:  message,
		Hostname: a.hostname,
		Time:     a.now(),
	})
}

func (a *Alerter) fail(target, cause string) result.Result {
	msg := "sending alert to " + target + " failed: " + cause
	log.Printf("Alerter: %s", msg)
	return result.Failed(msg)
}
