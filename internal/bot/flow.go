package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"belleza/internal/database"
	"belleza/internal/models"
	"belleza/internal/nlparse"
	"belleza/internal/service"
)

// handleMessage advances the per-chat conversation one step. Every prompt the
// client answers is stored in the session before moving on, so a restart in
// the middle of a conversation loses nothing.
func (b *Bot) handleMessage(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)

	switch strings.ToLower(text) {
	case "/start":
		b.reply(chatID, "¡Hola! Soy el asistente de reservas. Escribe /reservar para agendar una cita o /cancelar para empezar de nuevo.")
		return b.sessions.ClearSession(ctx, chatID)
	case "/cancelar", "/cancel":
		b.reply(chatID, "Listo, conversación reiniciada. Escribe /reservar cuando quieras agendar.")
		return b.sessions.ClearSession(ctx, chatID)
	case "/reservar", "/book":
		return b.startBooking(ctx, chatID)
	}

	session, err := b.sessions.GetSession(ctx, chatID)
	if err != nil {
		return err
	}
	if session == nil || session.Step == "" || session.Step == models.StepIdle {
		b.reply(chatID, "Escribe /reservar para agendar una cita.")
		return nil
	}

	switch session.Step {
	case models.StepSelectService:
		return b.stepSelectService(ctx, session, text)
	case models.StepEnterDate:
		return b.stepEnterDate(ctx, session, text)
	case models.StepEnterTime:
		return b.stepEnterTime(ctx, session, text)
	case models.StepSelectStylist:
		return b.stepSelectStylist(ctx, session, text)
	case models.StepEnterName:
		return b.stepEnterName(ctx, session, text)
	case models.StepConfirmBooking:
		return b.stepConfirm(ctx, session, text)
	default:
		b.reply(chatID, "Escribe /reservar para agendar una cita.")
		return b.sessions.ClearSession(ctx, chatID)
	}
}

func (b *Bot) startBooking(ctx context.Context, chatID int64) error {
	services, err := b.store.ListActiveServices(ctx, b.cfg.TenantID)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		b.reply(chatID, "No hay servicios disponibles por ahora.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("¿Qué servicio deseas?\n")
	for i, svc := range services {
		fmt.Fprintf(&sb, "%d. %s (%d min)\n", i+1, svc.Name, svc.DurationMinutes)
	}
	sb.WriteString("Responde con el número o el nombre.")
	b.reply(chatID, sb.String())

	session := &models.Session{ChatID: chatID, Step: models.StepSelectService}
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepSelectService(ctx context.Context, session *models.Session, text string) error {
	services, err := b.store.ListActiveServices(ctx, b.cfg.TenantID)
	if err != nil {
		return err
	}

	var picked *models.Service
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(services) {
		picked = services[n-1]
	} else {
		needle := strings.ToLower(text)
		for _, svc := range services {
			if strings.Contains(strings.ToLower(svc.Name), needle) {
				picked = svc
				break
			}
		}
	}
	if picked == nil {
		b.reply(session.ChatID, "No encontré ese servicio, responde con el número de la lista.")
		return nil
	}

	session.Set("service_id", picked.ID)
	session.Step = models.StepEnterDate
	b.reply(session.ChatID, fmt.Sprintf("%s, perfecto. ¿Para qué día? (por ejemplo: mañana, el viernes, 2025-07-15)", picked.Name))
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepEnterDate(ctx context.Context, session *models.Session, text string) error {
	loc, err := b.tenantLocation(ctx)
	if err != nil {
		return err
	}

	res := nlparse.ParseDate(text, time.Now(), loc)
	session.Set("date", res.Date)
	session.Step = models.StepEnterTime

	prompt := fmt.Sprintf("Anotado para el %s. ¿A qué hora? (por ejemplo: 3pm, 14:30)", res.Date)
	if !res.Confident {
		prompt = fmt.Sprintf("No entendí bien la fecha, asumo %s. ¿A qué hora?", res.Date)
	}
	b.reply(session.ChatID, prompt)
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepEnterTime(ctx context.Context, session *models.Session, text string) error {
	res := nlparse.ParseTime(text)
	session.Set("time", res.Time)
	session.Step = models.StepSelectStylist

	prompt := fmt.Sprintf("A las %s. ¿Con quién prefieres? Escribe el nombre o \"cualquiera\".", res.Time)
	if !res.Confident {
		prompt = fmt.Sprintf("No entendí bien la hora, asumo las %s. ¿Con quién prefieres? Escribe el nombre o \"cualquiera\".", res.Time)
	}
	b.reply(session.ChatID, prompt)
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepSelectStylist(ctx context.Context, session *models.Session, text string) error {
	start, err := b.sessionStart(ctx, session)
	if err != nil {
		return err
	}
	serviceID := session.GetInt64("service_id")

	requested := text
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "cualquiera", "any", "anyone", "da igual":
		requested = ""
	}

	stylist, err := b.turn.SuggestStylist(ctx, b.cfg.TenantID, serviceID, start, requested)
	switch {
	case errors.Is(err, service.ErrStylistNotFound):
		b.reply(session.ChatID, "No conozco a nadie con ese nombre, intenta de nuevo o escribe \"cualquiera\".")
		return nil
	case errors.Is(err, service.ErrNoStylistAvailable):
		return b.offerAlternatives(ctx, session, serviceID)
	case err != nil:
		return err
	}

	session.Set("stylist_id", stylist.ID)
	session.Set("stylist_name", stylist.Name)
	session.Step = models.StepEnterName
	b.reply(session.ChatID, fmt.Sprintf("%s te atenderá. ¿A nombre de quién y a qué teléfono? (nombre, teléfono)", stylist.Name))
	return b.sessions.SetSession(ctx, session)
}

// offerAlternatives lists open slots for the chosen day when the requested
// time has no free stylist, and sends the client back to the time prompt.
func (b *Bot) offerAlternatives(ctx context.Context, session *models.Session, serviceID int64) error {
	loc, err := b.tenantLocation(ctx)
	if err != nil {
		return err
	}

	stylists, err := b.store.ListQualifiedStylists(ctx, b.cfg.TenantID, serviceID)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	var clocks []string
	for _, st := range stylists {
		slots, err := b.availability.ListAvailableSlots(ctx, b.cfg.TenantID, st.ID, serviceID, session.GetString("date"))
		if err != nil {
			return err
		}
		for _, slot := range slots {
			clock := slot.In(loc).Format("15:04")
			if _, dup := seen[clock]; !dup {
				seen[clock] = struct{}{}
				clocks = append(clocks, clock)
			}
		}
	}

	if len(clocks) == 0 {
		b.reply(session.ChatID, "Ese día está completo. Escribe otra fecha, por favor.")
		session.Step = models.StepEnterDate
	} else {
		if len(clocks) > 8 {
			clocks = clocks[:8]
		}
		b.reply(session.ChatID, fmt.Sprintf("A esa hora no hay nadie libre. Horarios disponibles: %s. ¿Cuál prefieres?", strings.Join(clocks, ", ")))
		session.Step = models.StepEnterTime
	}
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepEnterName(ctx context.Context, session *models.Session, text string) error {
	name, phone, ok := splitNamePhone(text)
	if !ok {
		b.reply(session.ChatID, "Necesito nombre y teléfono separados por coma, por ejemplo: Ana, +57 300 555 0101")
		return nil
	}

	session.Set("client_name", name)
	session.Set("client_phone", phone)
	session.Step = models.StepConfirmBooking

	b.reply(session.ChatID, fmt.Sprintf(
		"Confirmo: %s el %s a las %s con %s, a nombre de %s. ¿Está bien? (sí/no)",
		b.serviceName(ctx, session), session.GetString("date"), session.GetString("time"),
		session.GetString("stylist_name"), name))
	return b.sessions.SetSession(ctx, session)
}

func (b *Bot) stepConfirm(ctx context.Context, session *models.Session, text string) error {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "si", "sí", "yes", "ok", "dale", "confirmo":
	case "no":
		b.reply(session.ChatID, "Reserva descartada. Escribe /reservar para empezar de nuevo.")
		return b.sessions.ClearSession(ctx, session.ChatID)
	default:
		b.reply(session.ChatID, "Responde sí o no, por favor.")
		return nil
	}

	start, err := b.sessionStart(ctx, session)
	if err != nil {
		return err
	}

	client := &models.Client{
		TenantID:  b.cfg.TenantID,
		FirstName: session.GetString("client_name"),
		Phone:     session.GetString("client_phone"),
	}
	if err := b.store.GetOrCreateClient(ctx, client); err != nil {
		return err
	}

	appt, err := b.booker.Book(ctx, b.cfg.TenantID, client.ID, session.GetInt64("stylist_id"), session.GetInt64("service_id"), start)
	switch {
	case errors.Is(err, database.ErrSlotConflict):
		return b.offerAlternatives(ctx, session, session.GetInt64("service_id"))
	case errors.Is(err, service.ErrOutsideWorkingHours):
		b.reply(session.ChatID, "Esa hora queda fuera del horario de atención. Escribe otra hora, por favor.")
		session.Step = models.StepEnterTime
		return b.sessions.SetSession(ctx, session)
	case err != nil:
		return err
	}

	b.reply(session.ChatID, fmt.Sprintf("¡Cita confirmada! Tu código de reserva es %s. Te esperamos.", appt.Ref))
	return b.sessions.ClearSession(ctx, session.ChatID)
}

func (b *Bot) tenantLocation(ctx context.Context) (*time.Location, error) {
	tenant, err := b.store.GetTenant(ctx, b.cfg.TenantID)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(tenant.Timezone)
}

// sessionStart combines the session's date and time answers into a tenant-local
// instant.
func (b *Bot) sessionStart(ctx context.Context, session *models.Session) (time.Time, error) {
	loc, err := b.tenantLocation(ctx)
	if err != nil {
		return time.Time{}, err
	}
	raw := session.GetString("date") + " " + session.GetString("time")
	return time.ParseInLocation("2006-01-02 15:04", raw, loc)
}

func (b *Bot) serviceName(ctx context.Context, session *models.Session) string {
	svc, err := b.store.GetService(ctx, session.GetInt64("service_id"))
	if err != nil {
		return "el servicio"
	}
	return svc.Name
}

func splitNamePhone(text string) (string, string, bool) {
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name := strings.TrimSpace(parts[0])
	phone := strings.TrimSpace(parts[1])
	if name == "" || phone == "" {
		return "", "", false
	}
	return name, phone, true
}
