package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/practicedesk/billing/internal/domain/installment"
	"github.com/practicedesk/billing/internal/domain/notification"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

// DefaultDispatchInterval is how often a pass runs when nothing else triggers one
const DefaultDispatchInterval = 30 * time.Minute

// midnightSlack delays the day boundary pass so that the clock has surely
// moved to the new day
const midnightSlack = time.Second

// dispatchSignals are the change signals that trigger a pass
var dispatchSignals = []types.SignalType{
	types.SignalAgreementSaved,
	types.SignalAgreementDeleted,
	types.SignalClientDeleted,
	types.SignalClientChanged,
	types.SignalInstallmentsChanged,
	types.SignalManualRefresh,
}

// NotificationDispatcher raises one alert per installment and day for the
// installments that are due according to their notification timing
type NotificationDispatcher interface {
	// Start runs an initial pass and then keeps passing on a timer, at every
	// day boundary and on change signals until Stop is called
	Start(ctx context.Context) error

	// Stop tears down the timers and the signal subscription
	Stop()

	// RunPass classifies the visible installments and emits the alerts that
	// were not sent yet today
	RunPass(ctx context.Context) (*PassResult, error)
}

// PassResult summarizes one dispatcher pass
type PassResult struct {
	Day        time.Time
	Considered int
	Emitted    int
}

type notificationDispatcher struct {
	ServiceParams
	directory *ClientDirectory

	// passMu serializes passes
	passMu sync.Mutex

	// lifecycleMu guards the fields below
	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
	sub         signal.Subscription
	wg          *conc.WaitGroup
}

func NewNotificationDispatcher(params ServiceParams) NotificationDispatcher {
	return &notificationDispatcher{
		ServiceParams: params,
		directory:     NewClientDirectory(params),
	}
}

func (d *notificationDispatcher) Start(ctx context.Context) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if d.running {
		return ierr.NewError("dispatcher already started").
			WithHint("Stop the notification dispatcher before starting it again").
			Mark(ierr.ErrInvalidOperation)
	}

	// the loops outlive the caller's deadline, e.g. an fx start hook
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	var sub signal.Subscription
	if d.SignalBus != nil {
		var err error
		sub, err = d.SignalBus.Subscribe(loopCtx, d.onSignal, dispatchSignals...)
		if err != nil {
			cancel()
			return err
		}
	}

	d.running = true
	d.cancel = cancel
	d.sub = sub
	d.wg = conc.NewWaitGroup()

	d.runLogged(loopCtx, "start")

	d.wg.Go(func() { d.intervalLoop(loopCtx) })
	d.wg.Go(func() { d.midnightLoop(loopCtx) })

	d.Logger.Infow("notification dispatcher started",
		"interval", d.interval(),
		"timezone", d.Config.Notifications.Location().String(),
	)
	return nil
}

func (d *notificationDispatcher) Stop() {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if !d.running {
		return
	}

	d.cancel()
	if d.sub != nil {
		d.sub.Close()
	}
	d.wg.Wait()

	d.running = false
	d.cancel = nil
	d.sub = nil
	d.wg = nil
	d.Logger.Infow("notification dispatcher stopped")
}

func (d *notificationDispatcher) interval() time.Duration {
	if d.Config.Notifications.Interval > 0 {
		return d.Config.Notifications.Interval
	}
	return DefaultDispatchInterval
}

func (d *notificationDispatcher) intervalLoop(ctx context.Context) {
	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runLogged(ctx, "interval")
		}
	}
}

func (d *notificationDispatcher) midnightLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(untilNextMidnight(d.now(), d.Config.Notifications.Location()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.runLogged(ctx, "day_boundary")
		}
	}
}

// untilNextMidnight returns the time left until the next calendar day starts in loc
func untilNextMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	y, m, day := local.Date()
	next := time.Date(y, m, day+1, 0, 0, 0, 0, loc)
	return next.Sub(local) + midnightSlack
}

func (d *notificationDispatcher) onSignal(ctx context.Context, sig signal.Signal) error {
	d.Logger.Debugw("change signal received", "signal_type", sig.Type, "affected_id", sig.AffectedID)
	_, err := d.RunPass(ctx)
	return err
}

func (d *notificationDispatcher) runLogged(ctx context.Context, trigger string) {
	res, err := d.RunPass(ctx)
	if err != nil {
		d.Logger.Errorw("notification pass failed", "trigger", trigger, "error", err)
		return
	}
	d.Logger.Debugw("notification pass done",
		"trigger", trigger,
		"day", types.FormatDate(res.Day),
		"considered", res.Considered,
		"emitted", res.Emitted,
	)
}

func (d *notificationDispatcher) RunPass(ctx context.Context) (*PassResult, error) {
	d.passMu.Lock()
	defer d.passMu.Unlock()

	today := d.today()
	if err := d.rollDay(ctx, today); err != nil {
		return nil, err
	}

	visible, err := d.directory.Visible(ctx)
	if err != nil {
		return nil, err
	}

	result := &PassResult{Day: today}
	for _, inst := range visible {
		urgency := Classify(inst, today)
		if !urgency.IsVisible() {
			continue
		}
		result.Considered++
		if !timingMatches(inst.NotificationTiming, urgency) {
			continue
		}

		key := notification.NewDedupKey(inst.ID, today)
		claimed, err := d.NotificationRepo.Claim(ctx, key)
		if err != nil {
			d.Logger.Errorw("failed to claim notification",
				"dedup_key", key.String(),
				"error", err,
			)
			continue
		}
		if !claimed {
			continue
		}

		d.AlertSink.Emit(ctx, d.buildAlert(inst, urgency, key))
		result.Emitted++
	}
	return result, nil
}

// rollDay resets the sent state when the calendar day changed since the last
// pass of any dispatcher sharing the marker store
func (d *notificationDispatcher) rollDay(ctx context.Context, today time.Time) error {
	last, found, err := d.NotificationRepo.LastNotifiedDay(ctx)
	if err != nil {
		return err
	}
	if found && !last.Before(today) {
		return nil
	}
	d.Logger.Infow("new notification day", "day", types.FormatDate(today))
	return d.NotificationRepo.ResetDay(ctx, today)
}

func (d *notificationDispatcher) buildAlert(inst *installment.Installment, u types.Urgency, key notification.DedupKey) *notification.Alert {
	return &notification.Alert{
		Key:      key,
		Severity: Severity(u),
		Message:  alertMessage(inst, u),
		Urgency:  u,
		Context: notification.AlertContext{
			InstallmentID: inst.ID,
			ClientName:    inst.ClientName,
			Amount:        inst.Amount.StringFixed(2),
			DueDate:       inst.DueDate,
		},
		OccurredAt: d.now(),
	}
}

func alertMessage(inst *installment.Installment, u types.Urgency) string {
	subject := fmt.Sprintf("Payment %s of %s (%s)", inst.Label(), inst.ClientName, inst.Amount.StringFixed(2))
	switch u.Kind {
	case types.UrgencyOverdue:
		return fmt.Sprintf("%s is %d %s overdue", subject, u.Days, lo.Ternary(u.Days == 1, "day", "days"))
	case types.UrgencyDueToday:
		return subject + " is due today"
	case types.UrgencyDueTomorrow:
		return subject + " is due tomorrow"
	default:
		return fmt.Sprintf("%s is due in %d days", subject, u.Days)
	}
}
