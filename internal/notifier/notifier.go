package notifier

import (
	"bytes"
	"fmt"
	gotexttemplate "text/template"
	"time"
)

// NotificationData is the data passed to the alert template.
type NotificationData struct {
	Message  string
	Hostname string
	Time     time.Time
}

// RenderTemplate renders templateStr with data. Unknown fields are an error.
func RenderTemplate(templateName string, templateStr string, data NotificationData) (string, error) {
	tmpl, err := gotexttemplate.New(templateName).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse notification template '%s': %w", templateName, err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute notification template '%s': %w", templateName, err)
	}
	return buf.String(), nil
}
