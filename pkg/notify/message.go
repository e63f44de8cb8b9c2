// Package notify formats and delivers operator notifications for new form
// submissions.
package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shoppermo/shoppermo-server/pkg/submission"
)

// Message is a single notification email.
type Message struct {
	Subject  string
	HTMLBody string
}

var (
	waitlistTmpl = template.Must(template.New("waitlist").Parse(`
<h2>New Waitlist Signup</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
`))

	applicationTmpl = template.Must(template.New("application").Parse(`
<h2>New Merchant Application</h2>
<p><strong>Business Name:</strong> {{.BusinessName}}</p>
<p><strong>Contact Name:</strong> {{.ContactName}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Category:</strong> {{.Category}}</p>
<p><strong>Plan:</strong> {{.Plan}}</p>
`))

	salesTmpl = template.Must(template.New("sales").Parse(`
<h2>New Sales Inquiry</h2>
<p><strong>Name:</strong> {{.FullName}}</p>
<p><strong>Work Email:</strong> {{.WorkEmail}}</p>
<p><strong>Company:</strong> {{.CompanyName}}</p>
<p><strong>Company Size:</strong> {{.CompanySize}}</p>
{{- with .Message}}
<p><strong>Message:</strong></p>
<p>{{.}}</p>
{{- end}}
`))

	contactTmpl = template.Must(template.New("contact").Parse(`
<h2>New Contact Inquiry</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))
)

// WaitlistMessage formats the notification for a waitlist signup.
func WaitlistMessage(e *submission.WaitlistEntry) (Message, error) {
	return render("New Waitlist Signup: "+e.Name, waitlistTmpl, e)
}

// MerchantApplicationMessage formats the notification for a merchant application.
func MerchantApplicationMessage(a *submission.MerchantApplication) (Message, error) {
	return render("New Merchant Application: "+a.BusinessName, applicationTmpl, a)
}

// SalesInquiryMessage formats the notification for a contact-sales request.
func SalesInquiryMessage(q *submission.SalesInquiry) (Message, error) {
	return render("New Sales Inquiry: "+q.CompanyName, salesTmpl, q)
}

// ContactInquiryMessage formats the notification for a contact inquiry.
func ContactInquiryMessage(q *submission.ContactInquiry) (Message, error) {
	return render("New Contact Inquiry: "+q.Subject, contactTmpl, q)
}

func render(subject string, tmpl *template.Template, data any) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("rendering %s notification: %w", tmpl.Name(), err)
	}
	return Message{Subject: subject, HTMLBody: buf.String()}, nil
}
