package notification

import (
	"fmt"
	"strings"

	"mediadesk.io/courier/internal/domain"
)

type smsFormatter func(v view) string

var clientSMS = map[domain.Event]smsFormatter{
	domain.EventOrderPlaced: func(v view) string {
		msg := fmt.Sprintf("Thanks %s! Order %s received (%d %s",
			firstName(v.RecipientName), v.Payload.OrderNumber,
			v.Payload.ItemCount, plural(v.Payload.ItemCount, "item", "items"))
		if v.Amount != "" {
			msg += ", $" + v.Amount
		}
		return msg + ")."
	},
	domain.EventBookingCreated: func(v view) string {
		return fmt.Sprintf("Hi %s, we received your %s request%s. We'll confirm soon.",
			firstName(v.RecipientName), orDefault(v.Payload.ServiceName, "booking"), onDate(v.SessionDate))
	},
	domain.EventOrderCompleted: func(v view) string {
		return fmt.Sprintf("Hi %s, order %s is ready: %d %s to download at %s",
			firstName(v.RecipientName), v.Payload.OrderNumber,
			v.Payload.ItemCount, plural(v.Payload.ItemCount, "item", "items"), v.DownloadsURL)
	},
	domain.EventBookingConfirmed: func(v view) string {
		return fmt.Sprintf("Hi %s, your %s%s is confirmed. See you then!",
			firstName(v.RecipientName), orDefault(v.Payload.ServiceName, "session"), onDate(v.SessionDate))
	},
}

var adminSMS = map[domain.Event]smsFormatter{
	domain.EventBookingCreated: func(v view) string {
		return fmt.Sprintf("New booking: %s, %s%s",
			orDefault(v.Payload.ClientName, "unknown client"), orDefault(v.Payload.ServiceName, "session"), onDate(v.SessionDate))
	},
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return "there"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func onDate(date string) string {
	if date == "" {
		return ""
	}
	return " on " + date
}
