// Package automation runs the job loop that drives the bum app on one device.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/lowji194/bumx/config"
	"github.com/lowji194/bumx/devices/atx"
	"github.com/lowji194/bumx/utils"
)

var (
	xpathScrollView = atx.ByXPath("//android.widget.ScrollView")
	xpathDismiss    = atx.ByXPath("//android.widget.Button[@content-desc='Quay về'] | //android.widget.Button[@content-desc='Đồng ý quy định']")
	xpathDoJob      = atx.ByXPath("//android.widget.Button[@content-desc='Làm']")
	xpathDone       = atx.ByXPath("//android.widget.Button[@content-desc='Xong']")
	xpathBack       = atx.ByXPath("//android.widget.Button[@content-desc='Quay về']")
	xpathJobLog     = atx.ByXPath("//android.view.View[@content-desc]")
	xpathNewJob     = atx.ByXPath("//android.widget.ImageView[@content-desc='Comment Facebook, nhận 50đ']")
)

const swipeDuration = 0.35

// Screen is the part of the agent driver the loop needs.
type Screen interface {
	FindElements(ctx context.Context, by atx.By) ([]*atx.Element, error)
	GetScreenSize(ctx context.Context) (int, int, error)
	Swipe(ctx context.Context, x1, y1, x2, y2 int, duration float64) error
}

type Reporter interface {
	Report(serial, message string)
}

// Stats counts loop iterations and jobs finished with the Xong button.
type Stats struct {
	Jobs      int
	Completed int
}

type Runner struct {
	screen   Screen
	reporter Reporter
	serial   string
	pacing   config.Pacing
	sleep    func(ctx context.Context, d time.Duration) error

	stats Stats

	// OnIteration, when set, receives the counters after every iteration.
	OnIteration func(Stats)
}

func NewRunner(screen Screen, reporter Reporter, serial string, pacing config.Pacing) *Runner {
	return &Runner{
		screen:   screen,
		reporter: reporter,
		serial:   serial,
		pacing:   pacing,
		sleep:    utils.Sleep,
	}
}

// Stats is not synchronized; read it from the goroutine running Run or after
// Run returns.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run repeats the job routine until ctx is cancelled. Iteration failures are
// reported and retried after the error backoff; Run only returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.runOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			utils.WithDevice(r.serial).Warnf("iteration failed: %v", err)
			r.reporter.Report(r.serial, fmt.Sprintf("[ERROR] [%s] action failed: %v", r.serial, err))
			if err := r.sleep(ctx, r.pacing.ErrorBackoff); err != nil {
				return err
			}
			continue
		}

		if r.OnIteration != nil {
			r.OnIteration(r.stats)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) error {
	if err := r.dismissPopup(ctx); err != nil {
		return err
	}

	dismiss, err := r.screen.FindElements(ctx, xpathDismiss)
	if err != nil {
		return err
	}
	if len(dismiss) > 0 {
		if err := dismiss[0].Click(ctx); err != nil {
			return err
		}
	}

	if err := r.sleep(ctx, r.pacing.Settle); err != nil {
		return err
	}

	doJob, err := r.screen.FindElements(ctx, xpathDoJob)
	if err != nil {
		return err
	}

	if len(doJob) > 0 {
		err = r.doJob(ctx, doJob[0])
	} else {
		err = r.findNewJob(ctx)
	}
	if err != nil {
		return err
	}

	r.stats.Jobs++
	return nil
}

// dismissPopup scrolls an open ScrollView popup out of the way.
func (r *Runner) dismissPopup(ctx context.Context) error {
	popup, err := r.screen.FindElements(ctx, xpathScrollView)
	if err != nil {
		return err
	}
	if len(popup) == 0 {
		return nil
	}

	w, h, err := r.screen.GetScreenSize(ctx)
	if err != nil {
		return err
	}
	if err := r.screen.Swipe(ctx, w/2, int(float64(h)*0.8), w/2, int(float64(h)*0.3), swipeDuration); err != nil {
		return err
	}

	return r.sleep(ctx, r.pacing.Popup)
}

func (r *Runner) doJob(ctx context.Context, start *atx.Element) error {
	r.report("start job!")
	if err := start.Click(ctx); err != nil {
		return err
	}

	if err := r.sleep(ctx, r.pacing.Job); err != nil {
		return err
	}

	clicked, err := r.clickIfPresent(ctx, xpathDone)
	if err != nil {
		return err
	}
	if clicked {
		r.stats.Completed++
	}

	if _, err := r.clickIfPresent(ctx, xpathBack); err != nil {
		return err
	}

	logs, err := r.screen.FindElements(ctx, xpathJobLog)
	if err != nil {
		return err
	}
	if len(logs) > 0 {
		r.report(logs[0].GetText())
	}
	return nil
}

func (r *Runner) findNewJob(ctx context.Context) error {
	r.report("out of jobs, looking for a new one!")

	clicked, err := r.clickIfPresent(ctx, xpathNewJob)
	if err != nil || !clicked {
		return err
	}

	_, err = r.clickIfPresent(ctx, xpathBack)
	return err
}

func (r *Runner) clickIfPresent(ctx context.Context, by atx.By) (bool, error) {
	elements, err := r.screen.FindElements(ctx, by)
	if err != nil {
		return false, err
	}
	if len(elements) == 0 {
		return false, nil
	}
	if err := elements[0].Click(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Runner) report(text string) {
	r.reporter.Report(r.serial, fmt.Sprintf("[JOB] [%s] [%d - %d] %s", r.serial, r.stats.Completed, r.stats.Jobs+1, text))
}
