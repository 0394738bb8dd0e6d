package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"attorneyvisit/internal/geocode"
	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/wizard"
	"attorneyvisit/pkg/client"
	"attorneyvisit/pkg/locale"
	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/model"
)

const (
	lookupWait     = 15 * time.Second
	messageRole    = "Attorney"
	notice         = "This form requests a legal visit with a person in custody (PIC). Requests are reviewed by facility staff; you will be contacted at the email you provide. Do not use this form for emergencies."
	confirmMessage = "I confirm that the information above is accurate."
)

var messageCategories = []string{"Legal Visit", "Case Consultation", "Document Review", "Other"}

type session struct {
	p       *prompter
	ctrl    *wizard.Controller
	lookup  *wizard.Lookup
	states  chan wizard.LookupState
	suggest *geocode.Suggester
	refiner refine.Refiner
	log     *logger.Logger
}

func main() {
	proxyURL := flag.String("proxy", "http://localhost:8080", "intake proxy base URL")
	facilitiesFile := flag.String("facilities", os.Getenv("FACILITIES_FILE"), "YAML file overriding the facility, time slot and duration lists")
	cooldownFile := flag.String("cooldown-file", "", "file holding the last submission time (default: user config dir)")
	suggestURL := flag.String("geocode-url", geocode.DefaultSuggestURL, "address suggestion endpoint")
	logLevel := flag.String("log-level", logger.WARN, "log level")
	flag.Parse()

	log := logger.New(logger.Config{
		Level:   *logLevel,
		Format:  logger.TEXT,
		Output:  os.Stderr,
		Service: "visit-request",
	})

	catalogue, err := model.LoadCatalogue(*facilitiesFile)
	if err != nil {
		log.Fatal("Failed to load catalogue", "error", err)
	}

	store := cooldownStore(*cooldownFile, log)
	intake := client.NewIntakeClient(strings.TrimSuffix(*proxyURL, "/"))
	guard := wizard.NewGuard(intake, store, log)
	ctrl := wizard.NewController(catalogue, guard,
		wizard.WithToday(locale.Clock(locale.Location(locale.FacilityTimezone), nil)))

	s := &session{
		p:       newPrompter(os.Stdin, os.Stdout),
		ctrl:    ctrl,
		states:  make(chan wizard.LookupState, 8),
		suggest: geocode.NewSuggester(*suggestURL, log),
		refiner: intake,
		log:     log,
	}
	ctrl.OnScrollTop = func() { s.p.printf("\n%s\n", strings.Repeat("=", 60)) }
	s.lookup = wizard.NewLookup(intake, ctrl, wizard.WithStateListener(func(st wizard.LookupState) {
		if !st.Loading {
			select {
			case s.states <- st:
			default:
			}
		}
	}))
	defer s.lookup.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.run(ctx); err != nil && !errors.Is(err, errInputClosed) && !errors.Is(err, context.Canceled) {
		log.Fatal("Wizard failed", "error", err)
	}
}

var errInputClosed = errors.New("input closed")

func cooldownStore(path string, log *logger.Logger) wizard.CooldownStore {
	if path == "" {
		var err error
		if path, err = wizard.DefaultCooldownPath(); err != nil {
			log.Warn("No user config dir, cooldown kept in memory", "error", err)
			return &wizard.MemoryCooldownStore{}
		}
	}
	return wizard.NewFileCooldownStore(path)
}

func (s *session) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := s.ctrl.Step()
		s.p.printf("\nStep %d of %d: %s\n", int(step)+1, int(wizard.LastStep)+1, step)

		var err error
		switch step {
		case wizard.StepIntro:
			err = s.intro()
		case wizard.StepAttorney:
			err = s.attorney(ctx)
		case wizard.StepSubject:
			err = s.subject()
		case wizard.StepScheduling:
			err = s.scheduling(ctx)
		case wizard.StepReview:
			var done bool
			done, err = s.review(ctx)
			if err == nil && done {
				return nil
			}
			continue
		}
		if err != nil {
			return err
		}
		s.advance()
	}
}

func (s *session) advance() {
	err := s.ctrl.Advance()
	var verrs wizard.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			s.p.printf("  ! %s: %s\n", fe.Field, fe.Message)
		}
	}
}

func (s *session) intro() error {
	s.p.printf("%s\n", notice)
	if _, ok := s.p.ask("Press Enter to continue", ""); !ok {
		return errInputClosed
	}
	return nil
}

func (s *session) attorney(ctx context.Context) error {
	d := s.ctrl.Draft()
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name", &d.FirstName},
		{"Last name", &d.LastName},
		{"Email", &d.Email},
		{"Phone", &d.Phone},
		{"Firm name", &d.FirmName},
	}
	for _, f := range fields {
		v, ok := s.p.ask(f.label, *f.dst)
		if !ok {
			return errInputClosed
		}
		*f.dst = v
	}

	addr, ok := s.p.ask("Firm address", d.FirmAddress)
	if !ok {
		return errInputClosed
	}
	if addr != d.FirmAddress {
		if picked, ok := s.pickAddress(ctx, addr); ok {
			addr = picked
		}
	}
	d.FirmAddress = addr

	s.ctrl.Update(func(dst *model.Draft) {
		dst.FirstName, dst.LastName, dst.Email = d.FirstName, d.LastName, d.Email
		dst.Phone, dst.FirmName, dst.FirmAddress = d.Phone, d.FirmName, d.FirmAddress
	})
	return nil
}

func (s *session) pickAddress(ctx context.Context, text string) (string, bool) {
	suggestions := s.suggest.Suggest(ctx, text)
	if len(suggestions) == 0 {
		return "", false
	}
	options := make([]string, 0, len(suggestions)+1)
	options = append(options, text)
	for _, sg := range suggestions {
		options = append(options, sg.Text)
	}
	picked, _ := s.p.choose("Address suggestions (1 keeps what you typed):", options, text)
	return picked, true
}

func (s *session) subject() error {
	d := s.ctrl.Draft()

	current := "Book & Case number"
	if d.NYSID != "" {
		current = "NYSID"
	}
	kindLabel, ok := s.p.choose("Identifier type:", []string{"Book & Case number", "NYSID"}, current)
	if !ok {
		return errInputClosed
	}
	kind := model.KindBookAndCase
	if kindLabel == "NYSID" {
		kind = model.KindNYSID
	}
	if kindLabel != current {
		s.lookup.SwitchKind(kind)
	}

	d = s.ctrl.Draft()
	existing := d.BookAndCase
	if kind == model.KindNYSID {
		existing = d.NYSID
	}
	value, ok := s.p.ask(kindLabel, existing)
	if !ok {
		return errInputClosed
	}
	value = strings.TrimSpace(value)
	s.ctrl.SetIdentifier(model.Identifier{Kind: kind, Value: value})
	s.resolveIdentifier(kind, value)

	d = s.ctrl.Draft()
	if d.PICFirstName, ok = s.p.ask("PIC first name", d.PICFirstName); !ok {
		return errInputClosed
	}
	if d.PICLastName, ok = s.p.ask("PIC last name", d.PICLastName); !ok {
		return errInputClosed
	}
	if d.Facility, ok = s.p.choose("Facility:", s.ctrl.Catalogue().Facilities, d.Facility); !ok {
		return errInputClosed
	}

	s.ctrl.Update(func(dst *model.Draft) {
		dst.PICFirstName, dst.PICLastName, dst.Facility = d.PICFirstName, d.PICLastName, d.Facility
	})
	return nil
}

// resolveIdentifier feeds the lookup and waits for it to settle.
func (s *session) resolveIdentifier(kind model.IdentifierKind, value string) {
	for len(s.states) > 0 {
		<-s.states
	}

	wait := value != "" && value != s.lookup.State().LastResolved &&
		(kind != model.KindBookAndCase || len(value) == model.BookAndCaseLength)
	s.lookup.OnInput(kind, value)
	if !wait {
		return
	}

	s.p.printf("Looking up PIC...\n")
	select {
	case st := <-s.states:
		if st.Error != "" {
			s.p.printf("  ! %s\n", st.Error)
			return
		}
		d := s.ctrl.Draft()
		s.p.printf("  Found: %s %s, %s\n", d.PICFirstName, d.PICLastName, d.Facility)
	case <-time.After(lookupWait):
		s.p.printf("  ! %s\n", wizard.MsgLookupFailed)
	}
}

func (s *session) scheduling(ctx context.Context) error {
	d := s.ctrl.Draft()
	cat := s.ctrl.Catalogue()
	var ok bool

	s.p.printf("Preferred slot\n")
	if d.PreferredDate, ok = s.p.ask("Date (YYYY-MM-DD)", d.PreferredDate); !ok {
		return errInputClosed
	}
	if d.PreferredTime, ok = s.p.choose("Time window:", cat.TimeSlots, d.PreferredTime); !ok {
		return errInputClosed
	}
	if d.PreferredDuration, ok = s.p.choose("Duration (minutes):", cat.Durations, d.PreferredDuration); !ok {
		return errInputClosed
	}

	s.p.printf("Alternative slot\n")
	if d.AlternativeDate, ok = s.p.ask("Date (YYYY-MM-DD)", d.AlternativeDate); !ok {
		return errInputClosed
	}
	if d.AlternativeTime, ok = s.p.choose("Time window:", cat.TimeSlots, d.AlternativeTime); !ok {
		return errInputClosed
	}
	if d.AlternativeDuration, ok = s.p.choose("Duration (minutes):", cat.Durations, d.AlternativeDuration); !ok {
		return errInputClosed
	}

	if d.MessageCategory, ok = s.p.choose("Message category:", messageCategories, d.MessageCategory); !ok {
		return errInputClosed
	}
	if d.Message, ok = s.p.ask("Message (optional)", d.Message); !ok {
		return errInputClosed
	}
	if d.Message != "" {
		refined := refine.RefineOrOriginal(ctx, s.refiner, refine.Request{
			Text:     d.Message,
			Category: d.MessageCategory,
			Role:     messageRole,
		}, s.log)
		if refined != d.Message {
			s.p.printf("Suggested wording:\n  %s\n", refined)
			use, ok := s.p.confirm("Use the suggested wording?")
			if !ok {
				return errInputClosed
			}
			if use {
				d.Message = refined
			}
		}
	}

	s.ctrl.Update(func(dst *model.Draft) {
		dst.PreferredDate, dst.PreferredTime, dst.PreferredDuration = d.PreferredDate, d.PreferredTime, d.PreferredDuration
		dst.AlternativeDate, dst.AlternativeTime, dst.AlternativeDuration = d.AlternativeDate, d.AlternativeTime, d.AlternativeDuration
		dst.MessageCategory, dst.Message = d.MessageCategory, d.Message
	})
	return nil
}

// review returns done once the request is accepted or the user quits.
func (s *session) review(ctx context.Context) (bool, error) {
	d := s.ctrl.Draft()
	identifier := "Book & Case " + d.BookAndCase
	if d.NYSID != "" {
		identifier = "NYSID " + d.NYSID
	}
	rows := [][2]string{
		{"Attorney", d.FirstName + " " + d.LastName},
		{"Email", d.Email},
		{"Phone", d.Phone},
		{"Firm", d.FirmName + ", " + d.FirmAddress},
		{"PIC", d.PICFirstName + " " + d.PICLastName},
		{"Identifier", identifier},
		{"Facility", d.Facility},
		{"Preferred", fmt.Sprintf("%s %s (%s min)", d.PreferredDate, d.PreferredTime, d.PreferredDuration)},
		{"Alternative", fmt.Sprintf("%s %s (%s min)", d.AlternativeDate, d.AlternativeTime, d.AlternativeDuration)},
		{"Message", d.Message},
	}
	for _, row := range rows {
		s.p.printf("  %-12s %s\n", row[0]+":", row[1])
	}

	action, ok := s.p.choose("Next:", []string{"Submit", "Go back", "Quit"}, "")
	if !ok {
		return false, errInputClosed
	}
	switch action {
	case "Go back":
		s.ctrl.Retreat()
		return false, nil
	case "Quit":
		return true, nil
	}

	verified, ok := s.p.confirm(confirmMessage)
	if !ok {
		return false, errInputClosed
	}
	s.ctrl.SetVerified(verified)

	outcome, err := s.ctrl.Submit(ctx)
	var verrs wizard.ValidationErrors
	switch {
	case err == nil:
		s.p.printf("Request submitted. A confirmation will be sent to %s.\n", outcome.Email)
		if again, ok := s.p.confirm("Submit another request?"); ok && again {
			s.ctrl.Reset()
			s.lookup.SwitchKind(model.KindBookAndCase)
			return false, nil
		}
		return true, nil
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			s.p.printf("  ! %s: %s\n", fe.Field, fe.Message)
		}
	default:
		s.p.printf("  ! %s\n", wizard.UserMessage(err))
	}
	return false, nil
}
