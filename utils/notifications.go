package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

var pushClient = &http.Client{Timeout: 10 * time.Second}

// SendNotification delivers one push message through the Expo push service.
func SendNotification(token, title, body string, data map[string]string) error {
	payload := map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
		"data":  data,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	res, err := pushClient.Post(expoPushURL, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("posting push notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("push service returned status %d", res.StatusCode)
	}
	return nil
}
