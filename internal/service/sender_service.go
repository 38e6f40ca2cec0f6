package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"servicebooking/internal/entities"
)

const (
	NoticeScheduled = "scheduled"
	NoticeCanceled  = "canceled"
	NoticeReminder  = "reminder"
)

//go:embed templates/appointment_email.html
var appointmentEmailHTML string

var appointmentEmailTmpl = template.Must(template.New("appointment_email").Parse(appointmentEmailHTML))

// Notifier tells the customer about an appointment change.
type Notifier interface {
	NotifyAppointment(appt entities.AppointmentResponse, notice string)
}

// SenderService renders appointment notices and hands them to the email and SMS
// channels. Delivery failures are logged and never returned.
type SenderService struct {
	Email EmailSender
	SMS   SMSSender
	Log   *zap.Logger
	Now   func() time.Time
}

func NewSenderService(email EmailSender, sms SMSSender, log *zap.Logger) *SenderService {
	return &SenderService{Email: email, SMS: sms, Log: log, Now: time.Now}
}

func (s *SenderService) NotifyAppointment(appt entities.AppointmentResponse, notice string) {
	data := s.emailData(appt, notice)

	if appt.Email != "" && s.Email != nil {
		subject, plain := emailText(data, notice)
		var html bytes.Buffer
		if err := appointmentEmailTmpl.Execute(&html, data); err != nil {
			s.Log.Error("render appointment email", zap.String("code", appt.Code), zap.Error(err))
		}
		if err := s.Email.SendEmail(appt.Email, appt.ContactName, subject, plain, html.String()); err != nil {
			s.Log.Warn("appointment email failed", zap.String("code", appt.Code), zap.Error(err))
		}
	}

	if appt.Phone != "" && s.SMS != nil {
		if err := s.SMS.SendSMS(appt.Phone, smsText(data, notice)); err != nil {
			s.Log.Warn("appointment sms failed", zap.String("code", appt.Code), zap.Error(err))
		}
	}
}

func (s *SenderService) emailData(appt entities.AppointmentResponse, notice string) entities.AppointmentEmailData {
	status := appt.Status
	if notice == NoticeReminder {
		status = "coming up tomorrow"
	}
	data := entities.AppointmentEmailData{
		ContactName:     appt.ContactName,
		AppointmentCode: appt.Code,
		Vehicle:         strings.TrimSpace(fmt.Sprintf("%s %s %s", appt.VehicleYear, appt.VehicleMake, appt.VehicleModel)),
		VehiclePlate:    appt.VehiclePlate,
		Services:        strings.Join(appt.Services, ", "),
		Status:          status,
		CurrentYear:     s.Now().Year(),
	}
	if appt.PreferredDate != nil {
		data.PreferredDate = appt.PreferredDate.Format("Mon 02 Jan 2006")
	}
	return data
}

func emailText(d entities.AppointmentEmailData, notice string) (string, string) {
	var subject string
	switch notice {
	case NoticeReminder:
		subject = fmt.Sprintf("Reminder: your service appointment %s is tomorrow", d.AppointmentCode)
	default:
		subject = fmt.Sprintf("Your service appointment is %s - Code: %s", d.Status, d.AppointmentCode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYour service appointment is %s.\n\n", d.ContactName, d.Status)
	fmt.Fprintf(&b, "Appointment code: %s\n", d.AppointmentCode)
	fmt.Fprintf(&b, "Vehicle: %s", d.Vehicle)
	if d.VehiclePlate != "" {
		fmt.Fprintf(&b, " (Plate: %s)", d.VehiclePlate)
	}
	fmt.Fprintf(&b, "\nServices: %s\n", d.Services)
	if d.PreferredDate != "" {
		fmt.Fprintf(&b, "Preferred date: %s\n", d.PreferredDate)
	}
	return subject, b.String()
}

func smsText(d entities.AppointmentEmailData, notice string) string {
	if notice == NoticeReminder {
		return fmt.Sprintf("Reminder: service appointment %s is tomorrow (%s).", d.AppointmentCode, d.Services)
	}
	return fmt.Sprintf("Service appointment %s is %s. More details in your email.", d.AppointmentCode, d.Status)
}
