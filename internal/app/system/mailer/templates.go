// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"time"
)

// ErrorReportData is the content of an error-report email.
type ErrorReportData struct {
	AppName  string
	Level    string
	Logger   string
	Message  string
	Caller   string
	Stack    string
	Time     time.Time
	ReportID string
}

// ErrorReportEmail renders plain text and HTML versions of an error report.
func ErrorReportEmail(data ErrorReportData) (textBody, htmlBody string) {
	var text bytes.Buffer
	text.WriteString(data.AppName + " logged an " + data.Level + " at " + data.Time.UTC().Format(time.RFC3339) + "\n")
	text.WriteString("Report ID: " + data.ReportID + "\n")
	if data.Logger != "" {
		text.WriteString("Logger: " + data.Logger + "\n")
	}
	if data.Caller != "" {
		text.WriteString("Caller: " + data.Caller + "\n")
	}
	text.WriteString("\n" + data.Message + "\n")
	if data.Stack != "" {
		text.WriteString("\nStack:\n" + data.Stack + "\n")
	}

	var buf bytes.Buffer
	if err := errorReportTmpl.Execute(&buf, data); err != nil {
		return text.String(), ""
	}
	return text.String(), buf.String()
}

var errorReportTmpl = template.Must(template.New("error_report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
<h2>{{.AppName}}: {{.Level}}</h2>
<p><strong>Time:</strong> {{.Time.UTC.Format "2006-01-02T15:04:05Z07:00"}}<br>
<strong>Report ID:</strong> {{.ReportID}}{{if .Logger}}<br>
<strong>Logger:</strong> {{.Logger}}{{end}}{{if .Caller}}<br>
<strong>Caller:</strong> {{.Caller}}{{end}}</p>
<pre style="white-space: pre-wrap;">{{.Message}}</pre>
{{if .Stack}}<h3>Stack</h3>
<pre style="white-space: pre-wrap; font-size: 12px;">{{.Stack}}</pre>{{end}}
</body>
</html>
`))
