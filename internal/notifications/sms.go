package notifications

import (
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devqna/backend/internal/models"
)

// SMSNotifier forwards notifications over SMS to recipients that have a
// phone number on file. Delivery is fire-and-forget; a Twilio failure is
// logged and dropped, the pull API stays authoritative.
type SMSNotifier struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

// NewSMSNotifierFromEnv returns nil when Twilio credentials are not
// configured, in which case the sink is simply not wired.
func NewSMSNotifierFromEnv(db *gorm.DB) *SMSNotifier {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")
	if sid == "" || token == "" || from == "" {
		return nil
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	log.Println("✅ SMS notification forwarding enabled")
	return &SMSNotifier{db: db, client: client, from: from}
}

func (s *SMSNotifier) Deliver(n models.Notification) {
	go func() {
		var user models.User
		if err := s.db.First(&user, n.UserID).Error; err != nil {
			return
		}
		if user.Phone == "" {
			return
		}

		params := &twilioapi.CreateMessageParams{}
		params.SetTo(user.Phone)
		params.SetFrom(s.from)
		params.SetBody(n.Title + ": " + n.Message)

		if _, err := s.client.Api.CreateMessage(params); err != nil {
			log.Printf("notifications: SMS to user %d failed: %v", n.UserID, err)
		}
	}()
}
