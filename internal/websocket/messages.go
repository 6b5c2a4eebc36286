package websocket

import (
	"time"

	"FundFlow/internal/domain/models"
)

// TopicSpyUpdates is the single live-feed topic. Registration alone does not
// receive broadcasts; a client must subscribe to this topic.
const TopicSpyUpdates = "spy_updates"

// Client actions.
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionGetLatest   = "getLatest"
)

type clientMessage struct {
	Action string `json:"action"`
	Type   string `json:"type"`
}

type welcomeMessage struct {
	Type              string   `json:"type"`
	Message           string   `json:"message"`
	AvailableActions  []string `json:"availableActions"`
	SubscriptionTypes []string `json:"subscriptionTypes"`
}

type subscriptionConfirmedMessage struct {
	Type             string `json:"type"`
	SubscriptionType string `json:"subscriptionType"`
	Message          string `json:"message"`
}

type unsubscribedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type latestDataMessage struct {
	Type string             `json:"type"`
	Data *models.FlowResult `json:"data"`
}

type updateMessage struct {
	Type      string             `json:"type"`
	Timestamp string             `json:"timestamp"`
	Data      *models.FlowResult `json:"data"`
}

type errorMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func newWelcome() welcomeMessage {
	return welcomeMessage{
		Type:              "welcome",
		Message:           "connected to SPY flow live feed",
		AvailableActions:  []string{actionSubscribe, actionUnsubscribe, actionGetLatest},
		SubscriptionTypes: []string{TopicSpyUpdates},
	}
}

func newError(msg string) errorMessage {
	return errorMessage{
		Type:      "error",
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
